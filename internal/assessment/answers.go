package assessment

import (
	"strings"

	"github.com/openlearnai/learning-service/internal/models"
)

// AnswerLookup is the read side of an answer store.
type AnswerLookup interface {
	Get(questionID string) (models.Answer, bool)
}

// AnswerStore maps question ids to the learner's current responses. It is not
// safe for concurrent use; the owning quiz block or exam session serializes
// access.
type AnswerStore struct {
	answers map[string]models.Answer
	frozen  bool
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[string]models.Answer)}
}

// Set inserts or overwrites an answer. It reports false and changes nothing
// once the store is frozen.
func (s *AnswerStore) Set(questionID string, answer models.Answer) bool {
	if s.frozen {
		return false
	}
	s.answers[questionID] = answer.Clone()
	return true
}

// SetMatchingEntry merges one left→right mapping into the question's existing
// matching answer, keeping the other entries.
func (s *AnswerStore) SetMatchingEntry(questionID, left, right string) bool {
	if s.frozen {
		return false
	}
	current, ok := s.answers[questionID]
	if !ok || current.Kind != models.AnswerMatching || current.Matches == nil {
		current = models.Answer{Kind: models.AnswerMatching, Matches: make(map[string]string)}
	}
	current.Matches[left] = right
	s.answers[questionID] = current
	return true
}

func (s *AnswerStore) Get(questionID string) (models.Answer, bool) {
	a, ok := s.answers[questionID]
	if !ok {
		return models.Answer{}, false
	}
	return a.Clone(), true
}

func (s *AnswerStore) Len() int {
	return len(s.answers)
}

// IsAnswered is the single completeness check used by every submit gate.
func (s *AnswerStore) IsAnswered(q models.Question) bool {
	a, ok := s.answers[q.ID]
	if !ok {
		return false
	}

	switch q.Type {
	case models.MultipleChoice:
		return a.Kind == models.AnswerIndex
	case models.FillBlank, models.Writing, models.Audio, models.Video:
		return a.Kind == models.AnswerText && strings.TrimSpace(a.Text) != ""
	case models.Matching:
		if a.Kind != models.AnswerMatching {
			return false
		}
		for _, p := range q.Pairs {
			if strings.TrimSpace(a.Matches[p.Left]) == "" {
				return false
			}
		}
		return len(q.Pairs) > 0
	}
	return false
}

func (s *AnswerStore) AnsweredCount(questions []models.Question) int {
	n := 0
	for _, q := range questions {
		if s.IsAnswered(q) {
			n++
		}
	}
	return n
}

func (s *AnswerStore) AllAnswered(questions []models.Question) bool {
	return s.AnsweredCount(questions) == len(questions)
}

// Snapshot returns a deep copy of every stored answer.
func (s *AnswerStore) Snapshot() map[string]models.Answer {
	out := make(map[string]models.Answer, len(s.answers))
	for id, a := range s.answers {
		out[id] = a.Clone()
	}
	return out
}

// Freeze makes the store read-only until the next Clear.
func (s *AnswerStore) Freeze() {
	s.frozen = true
}

func (s *AnswerStore) Frozen() bool {
	return s.frozen
}

// Clear empties the store and makes it writable again.
func (s *AnswerStore) Clear() {
	s.answers = make(map[string]models.Answer)
	s.frozen = false
}
