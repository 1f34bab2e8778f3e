package assessment

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/openlearnai/learning-service/internal/models"
)

type QuizState string

const (
	QuizUnsubmitted QuizState = "unsubmitted"
	QuizSubmitted   QuizState = "submitted"
)

// QuizBlock is the untimed single-page quiz embedded in a lesson.
type QuizBlock struct {
	mu         sync.Mutex
	quiz       models.Quiz
	byID       map[string]models.Question
	answers    *AnswerStore
	shuffle    *ShuffleCache
	state      QuizState
	result     *Result
	onComplete func(correct int)
	logger     *slog.Logger
}

type QuizView struct {
	Title        string                   `json:"title"`
	State        QuizState                `json:"state"`
	Questions    []QuestionView           `json:"questions"`
	Answers      map[string]models.Answer `json:"answers"`
	AllAnswered  bool                     `json:"all_answered"`
	PassingScore int                      `json:"passing_score,omitempty"`
	Result       *Result                  `json:"result,omitempty"`
	Score        int                      `json:"score"`
	Passed       bool                     `json:"passed"`
}

// NewQuizBlock builds a quiz block. onComplete receives the raw correct count
// once per submission and may be nil.
func NewQuizBlock(quiz models.Quiz, onComplete func(correct int), opts ...Option) (*QuizBlock, error) {
	if len(quiz.Questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	o := buildOptions(opts)

	b := &QuizBlock{
		quiz:       quiz,
		byID:       indexQuestions(quiz.Questions),
		answers:    NewAnswerStore(),
		shuffle:    NewShuffleCache(o.rand),
		state:      QuizUnsubmitted,
		onComplete: onComplete,
		logger:     o.logger.With("component", "quiz_block", "quiz", quiz.Title),
	}
	b.shuffle.Prime(quiz.Questions)
	return b, nil
}

func (b *QuizBlock) SetAnswer(questionID string, answer models.Answer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == QuizSubmitted {
		return ErrAlreadySubmitted
	}
	q, ok := b.byID[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if err := checkAnswer(q, answer); err != nil {
		return err
	}
	b.answers.Set(questionID, answer)
	return nil
}

func (b *QuizBlock) SetMatchingEntry(questionID, left, right string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == QuizSubmitted {
		return ErrAlreadySubmitted
	}
	q, ok := b.byID[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if err := checkMatchKey(q, left); err != nil {
		return err
	}
	b.answers.SetMatchingEntry(questionID, left, right)
	return nil
}

// CanSubmit is the allAnswered gate.
func (b *QuizBlock) CanSubmit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == QuizUnsubmitted && b.answers.AllAnswered(b.quiz.Questions)
}

// Submit grades the quiz. It is rejected unless every question is answered.
func (b *QuizBlock) Submit() (Result, error) {
	b.mu.Lock()
	if b.state == QuizSubmitted {
		b.mu.Unlock()
		return Result{}, ErrAlreadySubmitted
	}
	if !b.answers.AllAnswered(b.quiz.Questions) {
		b.mu.Unlock()
		return Result{}, ErrNotAllAnswered
	}

	result, err := Score(b.quiz.Questions, b.answers)
	if err != nil {
		b.mu.Unlock()
		return Result{}, err
	}
	b.state = QuizSubmitted
	b.result = &result
	b.answers.Freeze()
	onComplete := b.onComplete
	b.mu.Unlock()

	b.logger.Info("Quiz submitted", "correct", result.Correct, "total", result.Total)

	if onComplete != nil {
		onComplete(result.Correct)
	}
	return result, nil
}

// Reset clears every answer and returns to the unsubmitted state.
func (b *QuizBlock) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.answers.Clear()
	b.state = QuizUnsubmitted
	b.result = nil
}

func (b *QuizBlock) State() QuizState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Review returns graded outcomes; only available after submission.
func (b *QuizBlock) Review() (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result == nil {
		return Result{}, ErrNotSubmitted
	}
	return *b.result, nil
}

func (b *QuizBlock) Total() int {
	return len(b.quiz.Questions)
}

func (b *QuizBlock) PassingScore() int {
	return b.quiz.PassingScore
}

// Answers returns a copy of the current answers.
func (b *QuizBlock) Answers() map[string]models.Answer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.answers.Snapshot()
}

func (b *QuizBlock) View() QuizView {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := QuizView{
		Title:        b.quiz.Title,
		State:        b.state,
		Questions:    make([]QuestionView, 0, len(b.quiz.Questions)),
		Answers:      b.answers.Snapshot(),
		AllAnswered:  b.answers.AllAnswered(b.quiz.Questions),
		PassingScore: b.quiz.PassingScore,
	}
	for _, q := range b.quiz.Questions {
		v.Questions = append(v.Questions, questionView(q, b.shuffle, b.answers))
	}
	if b.result != nil {
		result := *b.result
		v.Result = &result
		v.Score = result.Percent()
		v.Passed = Passed(v.Score, b.quiz.PassingScore)
	}
	return v
}
