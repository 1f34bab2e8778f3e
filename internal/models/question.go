package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	FillBlank      QuestionType = "fill-blank"
	Matching       QuestionType = "matching"
	Writing        QuestionType = "writing"
	Audio          QuestionType = "audio"
	Video          QuestionType = "video"
)

// QuestionTypes lists every supported question kind in display order.
var QuestionTypes = []QuestionType{MultipleChoice, FillBlank, Matching, Writing, Audio, Video}

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, FillBlank, Matching, Writing, Audio, Video:
		return true
	}
	return false
}

// AnswerKind returns the shape of answer a learner gives for this kind of question.
func (t QuestionType) AnswerKind() AnswerKind {
	switch t {
	case MultipleChoice:
		return AnswerIndex
	case Matching:
		return AnswerMatching
	default:
		return AnswerText
	}
}

type MatchPair struct {
	Left  string `json:"left" validate:"required"`
	Right string `json:"right" validate:"required"`
}

// Question is a tagged union over the six question kinds. Only the fields
// relevant to Type are populated:
//   - multiple-choice: Options, CorrectIndex
//   - fill-blank:      CorrectText, Placeholder
//   - matching:        Pairs
//   - writing/audio/video: no expected value
type Question struct {
	ID          string       `json:"id" validate:"required"`
	Type        QuestionType `json:"type" validate:"required,question_type"`
	Text        string       `json:"text" validate:"required"`
	Options     []string     `json:"options,omitempty"`
	Pairs       []MatchPair  `json:"pairs,omitempty" validate:"omitempty,dive"`
	Placeholder string       `json:"placeholder,omitempty"`
	Explanation string       `json:"explanation,omitempty"`

	CorrectIndex *int   `json:"-"`
	CorrectText  string `json:"-"`
}

// questionWire is the content format: correctAnswer is a number for
// multiple-choice and a string for fill-blank.
type questionWire struct {
	ID            string          `json:"id"`
	Type          QuestionType    `json:"type"`
	Text          string          `json:"text"`
	Options       []string        `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	Pairs         []MatchPair     `json:"pairs,omitempty"`
	Placeholder   string          `json:"placeholder,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	w := questionWire{
		ID:          q.ID,
		Type:        q.Type,
		Text:        q.Text,
		Options:     q.Options,
		Pairs:       q.Pairs,
		Placeholder: q.Placeholder,
		Explanation: q.Explanation,
	}

	var err error
	switch q.Type {
	case MultipleChoice:
		if q.CorrectIndex != nil {
			w.CorrectAnswer, err = json.Marshal(*q.CorrectIndex)
		}
	case FillBlank:
		w.CorrectAnswer, err = json.Marshal(q.CorrectText)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(w)
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*q = Question{
		ID:          w.ID,
		Type:        w.Type,
		Text:        w.Text,
		Options:     w.Options,
		Pairs:       w.Pairs,
		Placeholder: w.Placeholder,
		Explanation: w.Explanation,
	}

	if len(w.CorrectAnswer) == 0 || string(w.CorrectAnswer) == "null" {
		return nil
	}

	switch w.Type {
	case MultipleChoice:
		var idx int
		if err := json.Unmarshal(w.CorrectAnswer, &idx); err != nil {
			return fmt.Errorf("question %s: correctAnswer must be an option index: %w", w.ID, err)
		}
		q.CorrectIndex = &idx
	case FillBlank:
		var text string
		if err := json.Unmarshal(w.CorrectAnswer, &text); err != nil {
			return fmt.Errorf("question %s: correctAnswer must be a string: %w", w.ID, err)
		}
		q.CorrectText = text
	}

	return nil
}

// LeftKeys returns the left-hand side of every matching pair in order.
func (q Question) LeftKeys() []string {
	keys := make([]string, len(q.Pairs))
	for i, p := range q.Pairs {
		keys[i] = p.Left
	}
	return keys
}

// RightValues returns the right-hand side of every matching pair in order.
func (q Question) RightValues() []string {
	values := make([]string, len(q.Pairs))
	for i, p := range q.Pairs {
		values[i] = p.Right
	}
	return values
}

// ExpectedAnswer renders the official answer for review screens.
func (q Question) ExpectedAnswer() string {
	switch q.Type {
	case MultipleChoice:
		if q.CorrectIndex != nil && *q.CorrectIndex >= 0 && *q.CorrectIndex < len(q.Options) {
			return q.Options[*q.CorrectIndex]
		}
	case FillBlank:
		return q.CorrectText
	case Matching:
		parts := make([]string, len(q.Pairs))
		for i, p := range q.Pairs {
			parts[i] = p.Left + " → " + p.Right
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// IntPtr is a small helper for building multiple-choice questions in code.
func IntPtr(v int) *int {
	return &v
}
