package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openlearnai/learning-service/internal/models"
)

var importHeader = []any{"ID", "Type", "Text", "Options", "Correct Answer", "Pairs", "Placeholder", "Explanation"}

// buildWorkbook writes rows onto the first sheet of a fresh workbook.
func buildWorkbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestParseQuestionSheet(t *testing.T) {
	wb := buildWorkbook(t,
		importHeader,
		[]any{"q1", "multiple-choice", "Pick b", "a | b | c", "1", "", "", "b is right"},
		[]any{"", "", "", "", "", "", "", ""},
		[]any{"q2", "fill-blank", "Hola, me ___ Ana", "", "llamo", "", "word", ""},
		[]any{"q3", "matching", "Match", "", "", "cat=gato|dog=perro", "", ""},
		[]any{"q4", "writing", "Describe your day", "", "", "", "", ""},
	)

	questions, errs := parseQuestionSheet(wb)

	require.Empty(t, errs)
	require.Len(t, questions, 4)

	assert.Equal(t, []string{"a", "b", "c"}, questions[0].Options)
	require.NotNil(t, questions[0].CorrectIndex)
	assert.Equal(t, 1, *questions[0].CorrectIndex)
	assert.Equal(t, "b is right", questions[0].Explanation)

	assert.Equal(t, "llamo", questions[1].CorrectText)
	assert.Equal(t, "word", questions[1].Placeholder)

	assert.Equal(t, []models.MatchPair{{Left: "cat", Right: "gato"}, {Left: "dog", Right: "perro"}}, questions[2].Pairs)
	assert.Equal(t, models.Writing, questions[3].Type)
}

func TestParseQuestionSheet_RowErrors(t *testing.T) {
	wb := buildWorkbook(t,
		importHeader,
		[]any{"q1", "essay", "Unknown type", "", "", "", "", ""},
		[]any{"q2", "multiple-choice", "No key", "a|b", "second", "", "", ""},
		[]any{"q3", "matching", "Bad pair", "", "", "cat-gato", "", ""},
		[]any{"q4", "fill-blank", "Fine", "", "ok", "", "", ""},
	)

	questions, errs := parseQuestionSheet(wb)

	assert.Len(t, questions, 1)
	require.Len(t, errs, 3)
	assert.Equal(t, "row[2].type", errs[0].Field)
	assert.Equal(t, "row[3].correct_answer", errs[1].Field)
	assert.Equal(t, "row[4].pairs", errs[2].Field)
}

func TestParseQuestionSheet_BadInput(t *testing.T) {
	_, errs := parseQuestionSheet(strings.NewReader("not a workbook"))
	require.Len(t, errs, 1)
	assert.Equal(t, "file", errs[0].Field)

	_, errs = parseQuestionSheet(buildWorkbook(t, []any{"ID", "Text"}, []any{"q1", "x"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "header", errs[0].Field)

	_, errs = parseQuestionSheet(buildWorkbook(t, importHeader))
	require.Len(t, errs, 1)
}
