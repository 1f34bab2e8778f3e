package models

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrMissingIndex = errors.New("index answer has no index")

type AnswerKind string

const (
	AnswerIndex    AnswerKind = "index"
	AnswerText     AnswerKind = "text"
	AnswerMatching AnswerKind = "matching"
)

// Answer is the learner's response to one question. Kind selects which of the
// remaining fields carries the value.
type Answer struct {
	Kind    AnswerKind        `json:"kind"`
	Index   int               `json:"index"`
	Text    string            `json:"text,omitempty"`
	Matches map[string]string `json:"matches,omitempty"`
}

// UnmarshalJSON refuses index answers without an index so a missing field is
// never read as option 0.
func (a *Answer) UnmarshalJSON(data []byte) error {
	type plain Answer
	var raw struct {
		plain
		Index *int `json:"index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind == AnswerIndex && raw.Index == nil {
		return ErrMissingIndex
	}

	*a = Answer(raw.plain)
	if raw.Index != nil {
		a.Index = *raw.Index
	}
	return nil
}

func IndexAnswer(index int) Answer {
	return Answer{Kind: AnswerIndex, Index: index}
}

// TextAnswer is used for fill-blank and writing responses, and for the opaque
// artifact token of audio and video responses.
func TextAnswer(text string) Answer {
	return Answer{Kind: AnswerText, Text: text}
}

func MatchingAnswer(matches map[string]string) Answer {
	return Answer{Kind: AnswerMatching, Matches: copyMatches(matches)}
}

// Present reports whether the answer carries any value at all.
func (a Answer) Present() bool {
	switch a.Kind {
	case AnswerIndex:
		return true
	case AnswerText:
		return strings.TrimSpace(a.Text) != ""
	case AnswerMatching:
		return len(a.Matches) > 0
	}
	return false
}

func (a Answer) Clone() Answer {
	a.Matches = copyMatches(a.Matches)
	return a
}

func copyMatches(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
