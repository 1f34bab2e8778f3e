package assessment

import (
	"fmt"

	"github.com/openlearnai/learning-service/internal/models"
)

// QuestionView is what a learner sees of a question: no expected answers.
type QuestionView struct {
	ID           string              `json:"id"`
	Type         models.QuestionType `json:"type"`
	Text         string              `json:"text"`
	Options      []string            `json:"options,omitempty"`
	Placeholder  string              `json:"placeholder,omitempty"`
	MatchLeft    []string            `json:"match_left,omitempty"`
	MatchOptions []string            `json:"match_options,omitempty"`
	Answered     bool                `json:"answered"`
}

func questionView(q models.Question, shuffle *ShuffleCache, answers *AnswerStore) QuestionView {
	v := QuestionView{
		ID:          q.ID,
		Type:        q.Type,
		Text:        q.Text,
		Options:     q.Options,
		Placeholder: q.Placeholder,
		Answered:    answers.IsAnswered(q),
	}
	if q.Type == models.Matching {
		v.MatchLeft = q.LeftKeys()
		v.MatchOptions = shuffle.Options(q.ID)
	}
	return v
}

func indexQuestions(questions []models.Question) map[string]models.Question {
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return byID
}

// checkAnswer verifies the answer has the shape the question expects.
func checkAnswer(q models.Question, a models.Answer) error {
	if a.Kind != q.Type.AnswerKind() {
		return fmt.Errorf("%w: %s expects a %s answer, got %q", ErrInvalidAnswer, q.Type, q.Type.AnswerKind(), a.Kind)
	}

	switch q.Type {
	case models.MultipleChoice:
		if a.Index < 0 || a.Index >= len(q.Options) {
			return fmt.Errorf("%w: option %d out of range", ErrInvalidAnswer, a.Index)
		}
	case models.Matching:
		for left := range a.Matches {
			if err := checkMatchKey(q, left); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkMatchKey(q models.Question, left string) error {
	if q.Type != models.Matching {
		return ErrNotMatching
	}
	for _, p := range q.Pairs {
		if p.Left == left {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown match key %q", ErrInvalidAnswer, left)
}
