package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/openlearnai/learning-service/internal/models"
)

// parseQuestionSheet reads the first sheet of an xlsx workbook into questions.
// The header row names the columns: id, type, text, options, correct answer,
// pairs, placeholder and explanation. Options and pairs are separated by "|",
// each pair written as "left=right". Row problems are collected, not fatal.
func parseQuestionSheet(r io.Reader) ([]models.Question, ValidationErrors) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ValidationErrors{*NewValidationError("file", "is not a readable xlsx workbook", nil)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ValidationErrors{*NewValidationError("file", "has no sheets", nil)}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ValidationErrors{*NewValidationError("file", "rows could not be read", nil)}
	}
	if len(rows) < 2 {
		return nil, ValidationErrors{*NewValidationError("file", "must have a header row and at least one question", len(rows))}
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"id", "type", "text"} {
		if _, ok := headerMap[required]; !ok {
			return nil, ValidationErrors{*NewValidationError("header", "missing column "+required, nil)}
		}
	}

	var questions []models.Question
	var errs ValidationErrors
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		q, rowErrs := parseQuestionRow(row, headerMap, i+2)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		questions = append(questions, q)
	}
	return questions, errs
}

func parseQuestionRow(row []string, headerMap map[string]int, rowNumber int) (models.Question, ValidationErrors) {
	cell := func(name string) string {
		i, ok := headerMap[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	field := func(name string) string {
		return fmt.Sprintf("row[%d].%s", rowNumber, strings.ReplaceAll(name, " ", "_"))
	}

	q := models.Question{
		ID:          cell("id"),
		Type:        models.QuestionType(cell("type")),
		Text:        cell("text"),
		Placeholder: cell("placeholder"),
		Explanation: cell("explanation"),
	}
	if !q.Type.Valid() {
		return q, ValidationErrors{*NewValidationError(field("type"), "is not a known question type", cell("type"))}
	}

	var errs ValidationErrors
	switch q.Type {
	case models.MultipleChoice:
		q.Options = splitList(cell("options"))
		idx, err := strconv.Atoi(cell("correct answer"))
		if err != nil {
			errs = append(errs, *NewValidationError(field("correct answer"), "must be an option index", cell("correct answer")))
			break
		}
		q.CorrectIndex = models.IntPtr(idx)
	case models.FillBlank:
		q.CorrectText = cell("correct answer")
	case models.Matching:
		for _, entry := range splitList(cell("pairs")) {
			left, right, ok := strings.Cut(entry, "=")
			if !ok {
				errs = append(errs, *NewValidationError(field("pairs"), "entries must look like left=right", entry))
				continue
			}
			q.Pairs = append(q.Pairs, models.MatchPair{Left: strings.TrimSpace(left), Right: strings.TrimSpace(right)})
		}
	}
	return q, errs
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
