package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/openlearnai/learning-service/internal/errors"
	"github.com/openlearnai/learning-service/internal/models"
)

// Validator combines struct tag validation with the content rules of
// questions, quizzes and exams.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := errors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// ValidateCourse checks a whole course before it is stored or played: struct
// tags first, then question content of every quiz and of the final exam.
func (v *Validator) ValidateCourse(course *models.Course) error {
	if err := v.Validate(course); err != nil {
		return err
	}

	var errs errors.ValidationErrors
	seen := make(map[string]bool)
	for mi, m := range course.Modules {
		for li, l := range m.Lessons {
			path := lessonPath(mi, li)
			if seen[l.ID] {
				errs = append(errs, *errors.NewValidationErrorWithRule(path+".id", "must be unique within the course", "unique", l.ID))
			}
			seen[l.ID] = true

			if l.Quiz == nil {
				continue
			}
			if l.Kind == models.LessonContent {
				errs = append(errs, *errors.NewValidationErrorWithRule(path+".quiz", "content lessons cannot carry a quiz", "excluded", nil))
				continue
			}
			errs = append(errs, v.questionValidator.ValidateSet(l.Quiz.Questions).Prefix(path+".quiz")...)
		}
	}

	if course.FinalExam != nil {
		errs = append(errs, v.questionValidator.ValidateSet(course.FinalExam.Questions).Prefix("final_exam")...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateExam checks a standalone exam definition.
func (v *Validator) ValidateExam(def *models.ExamDefinition) error {
	if err := v.Validate(def); err != nil {
		return err
	}
	if errs := v.questionValidator.ValidateSet(def.Questions); len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateQuestions checks an ordered question list such as an imported quiz.
func (v *Validator) ValidateQuestions(questions []models.Question) error {
	for i := range questions {
		if err := v.Validate(&questions[i]); err != nil {
			if errs, ok := err.(errors.ValidationErrors); ok {
				return errs.Prefix(questionPath(i))
			}
			return err
		}
	}
	if errs := v.questionValidator.ValidateSet(questions); len(errs) > 0 {
		return errs
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("lesson_kind", validateLessonKind)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).Valid()
}

func validateLessonKind(fl validator.FieldLevel) bool {
	switch models.LessonKind(fl.Field().String()) {
	case models.LessonContent, models.LessonQuiz, models.LessonAssessment:
		return true
	}
	return false
}
