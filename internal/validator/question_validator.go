package validator

import (
	"fmt"
	"strings"

	"github.com/openlearnai/learning-service/internal/errors"
	"github.com/openlearnai/learning-service/internal/models"
)

const (
	minOptions = 2
	maxOptions = 10
	maxPairs   = 10
)

// QuestionValidator enforces the structural requirements of each question
// kind. Struct tags cover presence; these rules cover the kind-specific shape.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion returns every content problem of a single question.
func (v *QuestionValidator) ValidateQuestion(q models.Question) errors.ValidationErrors {
	var errs errors.ValidationErrors
	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule("text", "is required", "required", q.Text))
	}

	switch q.Type {
	case models.MultipleChoice:
		errs = append(errs, v.validateMultipleChoice(q)...)
	case models.FillBlank:
		errs = append(errs, v.validateFillBlank(q)...)
	case models.Matching:
		errs = append(errs, v.validateMatching(q)...)
	case models.Writing, models.Audio, models.Video:
		if q.CorrectIndex != nil || q.CorrectText != "" {
			errs = append(errs, *errors.NewValidationErrorWithRule("correctAnswer", fmt.Sprintf("is not allowed for %s questions", q.Type), "excluded", nil))
		}
	default:
		errs = append(errs, *errors.NewValidationErrorWithRule("type", fmt.Sprintf("unsupported question type: %s", q.Type), "question_type", q.Type))
	}
	return errs
}

// ValidateSet checks an ordered question list: it must not be empty, ids must
// be unique and every question must be well formed.
func (v *QuestionValidator) ValidateSet(questions []models.Question) errors.ValidationErrors {
	if len(questions) == 0 {
		return errors.ValidationErrors{*errors.NewValidationErrorWithRule("questions", "must contain at least 1 question", "min", 0)}
	}

	var errs errors.ValidationErrors
	seen := make(map[string]int, len(questions))
	for i, q := range questions {
		path := questionPath(i)
		if first, dup := seen[q.ID]; dup {
			errs = append(errs, *errors.NewValidationErrorWithRule(path+".id", fmt.Sprintf("duplicates questions[%d]", first), "unique", q.ID))
		} else {
			seen[q.ID] = i
		}
		errs = append(errs, v.ValidateQuestion(q).Prefix(path)...)
	}
	return errs
}

func (v *QuestionValidator) validateMultipleChoice(q models.Question) errors.ValidationErrors {
	var errs errors.ValidationErrors

	if len(q.Options) < minOptions {
		errs = append(errs, *errors.NewValidationErrorWithRule("options", fmt.Sprintf("must have at least %d options", minOptions), "min", len(q.Options)))
	}
	if len(q.Options) > maxOptions {
		errs = append(errs, *errors.NewValidationErrorWithRule("options", fmt.Sprintf("cannot have more than %d options", maxOptions), "max", len(q.Options)))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, *errors.NewValidationErrorWithRule(fmt.Sprintf("options[%d]", i), "option text cannot be empty", "required", opt))
		}
	}

	switch {
	case q.CorrectIndex == nil:
		errs = append(errs, *errors.NewValidationErrorWithRule("correctAnswer", "is required", "required", nil))
	case *q.CorrectIndex < 0 || *q.CorrectIndex >= len(q.Options):
		errs = append(errs, *errors.NewValidationErrorWithRule("correctAnswer", fmt.Sprintf("must be an option index between 0 and %d", len(q.Options)-1), "range", *q.CorrectIndex))
	}
	return errs
}

func (v *QuestionValidator) validateFillBlank(q models.Question) errors.ValidationErrors {
	if strings.TrimSpace(q.CorrectText) == "" {
		return errors.ValidationErrors{*errors.NewValidationErrorWithRule("correctAnswer", "is required", "required", q.CorrectText)}
	}
	return nil
}

func (v *QuestionValidator) validateMatching(q models.Question) errors.ValidationErrors {
	var errs errors.ValidationErrors

	if len(q.Pairs) == 0 {
		return errors.ValidationErrors{*errors.NewValidationErrorWithRule("pairs", "must have at least 1 pair", "min", 0)}
	}
	if len(q.Pairs) > maxPairs {
		errs = append(errs, *errors.NewValidationErrorWithRule("pairs", fmt.Sprintf("cannot have more than %d pairs", maxPairs), "max", len(q.Pairs)))
	}

	lefts := make(map[string]bool, len(q.Pairs))
	for i, p := range q.Pairs {
		path := fmt.Sprintf("pairs[%d]", i)
		if strings.TrimSpace(p.Left) == "" || strings.TrimSpace(p.Right) == "" {
			errs = append(errs, *errors.NewValidationErrorWithRule(path, "pairs must have both left and right", "required", p))
			continue
		}
		if lefts[p.Left] {
			errs = append(errs, *errors.NewValidationErrorWithRule(path+".left", "must be unique within the question", "unique", p.Left))
		}
		lefts[p.Left] = true
	}
	if q.CorrectIndex != nil || q.CorrectText != "" {
		errs = append(errs, *errors.NewValidationErrorWithRule("correctAnswer", "is not allowed for matching questions", "excluded", nil))
	}
	return errs
}

func questionPath(i int) string {
	return fmt.Sprintf("questions[%d]", i)
}

func lessonPath(module, lesson int) string {
	return fmt.Sprintf("modules[%d].lessons[%d]", module, lesson)
}
