package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("title", "is required", "")

	assert.Equal(t, "title", err.Field)
	assert.Equal(t, "validation error on field 'title': is required", err.Error())
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("field1", "message1", nil))
	assert.Equal(t, "validation failed: field1 message1", errs.Error())

	errs = append(errs, *NewValidationErrorWithRule("field2", "message2", "min", 1))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
}

func TestValidationErrors_Prefix(t *testing.T) {
	errs := ValidationErrors{
		{Field: "options", Message: "too few"},
		{Field: "", Message: "duplicate"},
	}

	prefixed := errs.Prefix("questions[1]")

	assert.Equal(t, "questions[1].options", prefixed[0].Field)
	assert.Equal(t, "questions[1]", prefixed[1].Field)
	assert.Equal(t, "options", errs[0].Field)
}

func TestToValidationErrors(t *testing.T) {
	type lesson struct {
		Title string `json:"title" validate:"required"`
	}
	type course struct {
		Lessons []lesson `json:"lessons" validate:"dive"`
		Level   string   `json:"level" validate:"oneof=beginner advanced"`
	}

	v := validator.New()
	err := v.Struct(course{Lessons: []lesson{{}}, Level: "expert"})
	require.Error(t, err)

	errs := ToValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "Lessons[0].Title", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)
	assert.Equal(t, "Level", errs[1].Field)
	assert.Equal(t, "must be one of: beginner advanced", errs[1].Message)
	assert.Equal(t, "oneof", errs[1].Rule)
}

func TestToValidationErrors_IgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, ToValidationErrors(assert.AnError))
}
