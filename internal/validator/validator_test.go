package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearnai/learning-service/internal/errors"
	"github.com/openlearnai/learning-service/internal/models"
)

func validCourse() *models.Course {
	return &models.Course{
		ID:    "go-101",
		Title: "Go Basics",
		Modules: []models.Module{{
			ID:    "m1",
			Title: "Start",
			Lessons: []models.Lesson{
				{ID: "l1", Title: "Intro", Kind: models.LessonContent, Content: "Hello"},
				{ID: "l2", Title: "Check", Kind: models.LessonQuiz, Quiz: &models.Quiz{
					Title: "Check",
					Questions: []models.Question{
						{ID: "q1", Type: models.MultipleChoice, Text: "Pick", Options: []string{"a", "b"}, CorrectIndex: models.IntPtr(1)},
						{ID: "q2", Type: models.FillBlank, Text: "Fill", CorrectText: "go"},
					},
				}},
			},
		}},
		FinalExam: &models.ExamDefinition{
			Title:           "Final",
			DurationMinutes: 10,
			PassingScore:    70,
			Questions: []models.Question{
				{ID: "f1", Type: models.Matching, Text: "Match", Pairs: []models.MatchPair{{Left: "a", Right: "b"}}},
				{ID: "f2", Type: models.Writing, Text: "Write"},
			},
		},
	}
}

func fields(err error) []string {
	errs, ok := err.(errors.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateCourse_Valid(t *testing.T) {
	assert.NoError(t, New().ValidateCourse(validCourse()))
}

func TestValidateCourse_StructTags(t *testing.T) {
	c := validCourse()
	c.Title = ""
	c.Modules[0].Lessons[1].Quiz = nil

	err := New().ValidateCourse(c)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"title", "modules[0].lessons[1].quiz"}, fields(err))
}

func TestValidateCourse_UnknownQuestionType(t *testing.T) {
	c := validCourse()
	c.FinalExam.Questions[1].Type = "essay"

	err := New().ValidateCourse(c)
	require.Error(t, err)
	assert.Contains(t, fields(err), "final_exam.questions[1].type")
}

func TestValidateCourse_ContentRules(t *testing.T) {
	c := validCourse()
	c.Modules[0].Lessons[1].Quiz.Questions[0].CorrectIndex = models.IntPtr(2)
	c.Modules[0].Lessons[1].Quiz.Questions[1].ID = "q1"
	c.Modules[0].Lessons[1].ID = "l1"

	err := New().ValidateCourse(c)
	require.Error(t, err)
	assert.ElementsMatch(t, []string{
		"modules[0].lessons[1].id",
		"modules[0].lessons[1].quiz.questions[0].correctAnswer",
		"modules[0].lessons[1].quiz.questions[1].id",
	}, fields(err))
}

func TestQuestionValidator_Kinds(t *testing.T) {
	v := NewQuestionValidator()

	tests := []struct {
		name   string
		q      models.Question
		fields []string
	}{
		{
			name:   "multiple choice without answer",
			q:      models.Question{ID: "q", Type: models.MultipleChoice, Text: "t", Options: []string{"a", "b"}},
			fields: []string{"correctAnswer"},
		},
		{
			name:   "multiple choice single option",
			q:      models.Question{ID: "q", Type: models.MultipleChoice, Text: "t", Options: []string{"a"}, CorrectIndex: models.IntPtr(0)},
			fields: []string{"options"},
		},
		{
			name:   "multiple choice blank option",
			q:      models.Question{ID: "q", Type: models.MultipleChoice, Text: "t", Options: []string{"a", " "}, CorrectIndex: models.IntPtr(0)},
			fields: []string{"options[1]"},
		},
		{
			name:   "fill blank without answer",
			q:      models.Question{ID: "q", Type: models.FillBlank, Text: "t", CorrectText: "  "},
			fields: []string{"correctAnswer"},
		},
		{
			name:   "matching without pairs",
			q:      models.Question{ID: "q", Type: models.Matching, Text: "t"},
			fields: []string{"pairs"},
		},
		{
			name: "matching duplicate left",
			q: models.Question{ID: "q", Type: models.Matching, Text: "t", Pairs: []models.MatchPair{
				{Left: "a", Right: "1"}, {Left: "a", Right: "2"},
			}},
			fields: []string{"pairs[1].left"},
		},
		{
			name:   "audio with answer key",
			q:      models.Question{ID: "q", Type: models.Audio, Text: "t", CorrectText: "x"},
			fields: []string{"correctAnswer"},
		},
		{
			name: "video ok",
			q:    models.Question{ID: "q", Type: models.Video, Text: "t"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateQuestion(tt.q)
			got := make([]string, len(errs))
			for i, e := range errs {
				got[i] = e.Field
			}
			if len(tt.fields) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestQuestionValidator_EmptySet(t *testing.T) {
	errs := NewQuestionValidator().ValidateSet(nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "questions", errs[0].Field)
}

func TestValidateExam(t *testing.T) {
	v := New()
	def := validCourse().FinalExam
	assert.NoError(t, v.ValidateExam(def))

	def.DurationMinutes = 301
	err := v.ValidateExam(def)
	require.Error(t, err)
	assert.Equal(t, []string{"duration_minutes"}, fields(err))
}

func TestValidateQuestions_PrefixesStructErrors(t *testing.T) {
	err := New().ValidateQuestions([]models.Question{
		{ID: "q1", Type: models.Writing, Text: "ok"},
		{ID: "q2", Type: "bogus", Text: "bad"},
	})
	require.Error(t, err)
	assert.Equal(t, []string{"questions[1].type"}, fields(err))
}
