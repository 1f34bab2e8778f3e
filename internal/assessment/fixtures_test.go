package assessment

import (
	"fmt"
	"math/rand"

	"github.com/openlearnai/learning-service/internal/models"
)

func mcQuestion(id string, correct int) models.Question {
	return models.Question{
		ID:           id,
		Type:         models.MultipleChoice,
		Text:         "Pick one",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: models.IntPtr(correct),
	}
}

func fillQuestion(id, correct string) models.Question {
	return models.Question{
		ID:          id,
		Type:        models.FillBlank,
		Text:        "The sun ___ in the east",
		CorrectText: correct,
		Explanation: "The sun rises in the east.",
	}
}

func matchQuestion(id string) models.Question {
	return models.Question{
		ID:   id,
		Type: models.Matching,
		Text: "Match the words",
		Pairs: []models.MatchPair{
			{Left: "cat", Right: "gato"},
			{Left: "dog", Right: "perro"},
			{Left: "bird", Right: "pájaro"},
		},
	}
}

func openQuestion(id string, t models.QuestionType) models.Question {
	return models.Question{ID: id, Type: t, Text: "Respond"}
}

// oneOfEachKind returns six questions, one per kind, and a fully correct
// answer set for them.
func oneOfEachKind() ([]models.Question, map[string]models.Answer) {
	questions := []models.Question{
		mcQuestion("mc", 1),
		fillQuestion("fill", "rises"),
		matchQuestion("match"),
		openQuestion("write", models.Writing),
		openQuestion("audio", models.Audio),
		openQuestion("video", models.Video),
	}
	answers := map[string]models.Answer{
		"mc":    models.IndexAnswer(1),
		"fill":  models.TextAnswer("rises"),
		"match": models.MatchingAnswer(map[string]string{"cat": "gato", "dog": "perro", "bird": "pájaro"}),
		"write": models.TextAnswer("An essay."),
		"audio": models.TextAnswer("upload://audio-1"),
		"video": models.TextAnswer("upload://video-1"),
	}
	return questions, answers
}

func mcQuestions(n int) []models.Question {
	qs := make([]models.Question, n)
	for i := range qs {
		qs[i] = mcQuestion(fmt.Sprintf("q%d", i+1), 0)
	}
	return qs
}

func storeWith(answers map[string]models.Answer) *AnswerStore {
	s := NewAnswerStore()
	for id, a := range answers {
		s.Set(id, a)
	}
	return s
}

func fixedRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}
