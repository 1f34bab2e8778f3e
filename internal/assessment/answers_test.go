package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openlearnai/learning-service/internal/models"
)

func TestAnswerStore_SetOverwrites(t *testing.T) {
	s := NewAnswerStore()

	assert.True(t, s.Set("q1", models.IndexAnswer(0)))
	assert.True(t, s.Set("q1", models.IndexAnswer(2)))

	a, ok := s.Get("q1")
	assert.True(t, ok)
	assert.Equal(t, 2, a.Index)
	assert.Equal(t, 1, s.Len())
}

func TestAnswerStore_SetMatchingEntryMerges(t *testing.T) {
	s := NewAnswerStore()

	s.SetMatchingEntry("m", "cat", "gato")
	s.SetMatchingEntry("m", "dog", "perro")
	s.SetMatchingEntry("m", "cat", "chat")

	a, ok := s.Get("m")
	assert.True(t, ok)
	assert.Equal(t, models.AnswerMatching, a.Kind)
	assert.Equal(t, map[string]string{"cat": "chat", "dog": "perro"}, a.Matches)
}

func TestAnswerStore_GetReturnsCopy(t *testing.T) {
	s := NewAnswerStore()
	s.SetMatchingEntry("m", "cat", "gato")

	a, _ := s.Get("m")
	a.Matches["cat"] = "changed"

	b, _ := s.Get("m")
	assert.Equal(t, "gato", b.Matches["cat"])
}

func TestAnswerStore_IsAnswered(t *testing.T) {
	match := matchQuestion("m")

	tests := []struct {
		name     string
		question models.Question
		answer   *models.Answer
		want     bool
	}{
		{"missing", mcQuestion("q", 0), nil, false},
		{"multiple choice index zero", mcQuestion("q", 0), ptr(models.IndexAnswer(0)), true},
		{"multiple choice wrong kind", mcQuestion("q", 0), ptr(models.TextAnswer("0")), false},
		{"fill blank whitespace", fillQuestion("q", "x"), ptr(models.TextAnswer("   ")), false},
		{"fill blank text", fillQuestion("q", "x"), ptr(models.TextAnswer("y")), true},
		{"writing empty", openQuestion("q", models.Writing), ptr(models.TextAnswer("")), false},
		{"audio token", openQuestion("q", models.Audio), ptr(models.TextAnswer("upload://a")), true},
		{"matching partial", match, ptr(models.MatchingAnswer(map[string]string{"cat": "gato", "dog": "perro"})), false},
		{"matching blank value", match, ptr(models.MatchingAnswer(map[string]string{"cat": "gato", "dog": "perro", "bird": " "})), false},
		{"matching complete", match, ptr(models.MatchingAnswer(map[string]string{"cat": "x", "dog": "y", "bird": "z"})), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAnswerStore()
			if tt.answer != nil {
				s.Set(tt.question.ID, *tt.answer)
			}
			assert.Equal(t, tt.want, s.IsAnswered(tt.question))
		})
	}
}

func TestAnswerStore_FreezeAndClear(t *testing.T) {
	s := NewAnswerStore()
	s.Set("q1", models.IndexAnswer(1))
	s.Freeze()

	assert.False(t, s.Set("q1", models.IndexAnswer(3)))
	assert.False(t, s.SetMatchingEntry("m", "cat", "gato"))
	a, _ := s.Get("q1")
	assert.Equal(t, 1, a.Index)

	s.Clear()
	assert.False(t, s.Frozen())
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Set("q1", models.IndexAnswer(3)))
}

func ptr(a models.Answer) *models.Answer {
	return &a
}
