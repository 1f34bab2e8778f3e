package assessment

import (
	"math"
	"strings"

	"github.com/openlearnai/learning-service/internal/models"
)

// QuestionOutcome is the graded view of one question after submission.
type QuestionOutcome struct {
	QuestionID  string         `json:"question_id"`
	Type        string         `json:"type"`
	Answered    bool           `json:"answered"`
	Correct     bool           `json:"correct"`
	Answer      *models.Answer `json:"answer,omitempty"`
	Expected    string         `json:"expected,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
}

type Result struct {
	Correct  int               `json:"correct"`
	Total    int               `json:"total"`
	Outcomes []QuestionOutcome `json:"outcomes"`
}

// Redacted copies the result without official answers or explanations, for
// views where the same questions can be attempted again.
func (r Result) Redacted() Result {
	out := r
	out.Outcomes = make([]QuestionOutcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		o.Expected = ""
		o.Explanation = ""
		out.Outcomes[i] = o
	}
	return out
}

// Percent is the rounded share of correct answers.
func (r Result) Percent() int {
	return Percentage(r.Correct, r.Total)
}

// Percentage returns round(correct/total*100). A zero total yields 0; Score
// never produces one because it rejects empty question sets.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Passed compares a percentage against an inclusive threshold.
func Passed(percent, threshold int) bool {
	return percent >= threshold
}

// Score grades every question against the stored answers. Quiz blocks and exam
// sessions both go through here.
func Score(questions []models.Question, answers AnswerLookup) (Result, error) {
	if len(questions) == 0 {
		return Result{}, ErrEmptyQuestionSet
	}

	result := Result{
		Total:    len(questions),
		Outcomes: make([]QuestionOutcome, 0, len(questions)),
	}

	for _, q := range questions {
		a, ok := answers.Get(q.ID)
		correct := ok && IsCorrect(q, a)
		if correct {
			result.Correct++
		}

		outcome := QuestionOutcome{
			QuestionID:  q.ID,
			Type:        string(q.Type),
			Answered:    ok && a.Present(),
			Correct:     correct,
			Expected:    q.ExpectedAnswer(),
			Explanation: q.Explanation,
		}
		if ok {
			answer := a
			outcome.Answer = &answer
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}

// IsCorrect grades one answer against its question.
func IsCorrect(q models.Question, a models.Answer) bool {
	switch q.Type {
	case models.MultipleChoice:
		return a.Kind == models.AnswerIndex && q.CorrectIndex != nil && a.Index == *q.CorrectIndex
	case models.FillBlank:
		return a.Kind == models.AnswerText && normalizeBlank(a.Text) == normalizeBlank(q.CorrectText)
	case models.Matching:
		if a.Kind != models.AnswerMatching || len(a.Matches) == 0 {
			return false
		}
		for _, p := range q.Pairs {
			if a.Matches[p.Left] != p.Right {
				return false
			}
		}
		return true
	case models.Writing, models.Audio, models.Video:
		// presence-only grading
		return a.Kind == models.AnswerText && strings.TrimSpace(a.Text) != ""
	}
	return false
}

func normalizeBlank(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
