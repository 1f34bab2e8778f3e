package assessment

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/openlearnai/learning-service/internal/models"
)

// QuestionsPerPage is the fixed exam page size.
const QuestionsPerPage = 5

type ExamState string

const (
	ExamNotStarted ExamState = "not-started"
	ExamInProgress ExamState = "in-progress"
	ExamFinished   ExamState = "finished"
)

// ExamOutcome is recorded once when an exam finishes.
type ExamOutcome struct {
	Result     Result               `json:"result"`
	Score      int                  `json:"score"`
	Passed     bool                 `json:"passed"`
	Reason     models.ExamEndReason `json:"reason"`
	TimeSpent  int                  `json:"time_spent"`
	FinishedAt time.Time            `json:"finished_at"`
}

// ExamSession is the timed, paginated final exam. Every exported method is safe
// for concurrent use; completion and warning callbacks run without the session
// lock held.
type ExamSession struct {
	mu sync.Mutex

	def        models.ExamDefinition
	byID       map[string]models.Question
	answers    *AnswerStore
	shuffle    *ShuffleCache
	clock      clock.WithTicker
	onComplete func(score int, passed bool)
	onWarning  func(remaining int)
	logger     *slog.Logger

	state     ExamState
	page      int
	remaining int
	warned    bool
	closed    bool
	startedAt time.Time
	countdown *Countdown
	outcome   *ExamOutcome
}

type ExamView struct {
	Title            string                   `json:"title"`
	Description      string                   `json:"description,omitempty"`
	State            ExamState                `json:"state"`
	DurationSeconds  int                      `json:"duration_seconds"`
	Remaining        int                      `json:"remaining"`
	PassingScore     int                      `json:"passing_score"`
	Page             int                      `json:"page"`
	TotalPages       int                      `json:"total_pages"`
	TotalQuestions   int                      `json:"total_questions"`
	AnsweredCount    int                      `json:"answered_count"`
	CanSubmit        bool                     `json:"can_submit"`
	Questions        []QuestionView           `json:"questions,omitempty"`
	Answers          map[string]models.Answer `json:"answers,omitempty"`
	Outcome          *ExamOutcome             `json:"outcome,omitempty"`
	QuestionsPerPage int                      `json:"questions_per_page"`
}

// NewExamSession builds a session in the not-started state. onComplete is
// called once per finished attempt, whether submitted or timed out.
func NewExamSession(def models.ExamDefinition, onComplete func(score int, passed bool), opts ...Option) (*ExamSession, error) {
	if len(def.Questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	o := buildOptions(opts)

	return &ExamSession{
		def:        def,
		byID:       indexQuestions(def.Questions),
		answers:    NewAnswerStore(),
		shuffle:    NewShuffleCache(o.rand),
		clock:      o.clock,
		onComplete: onComplete,
		onWarning:  o.onTimeAlert,
		logger:     o.logger.With("component", "exam_session", "exam", def.Title),
		state:      ExamNotStarted,
		remaining:  def.DurationSeconds(),
	}, nil
}

// Start enters in-progress and starts the one-second countdown. A zero
// duration finishes the exam immediately as a timeout.
func (s *ExamSession) Start() error {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	switch s.state {
	case ExamInProgress:
		s.mu.Unlock()
		return ErrExamAlreadyStarted
	case ExamFinished:
		s.mu.Unlock()
		return ErrExamFinished
	}

	s.state = ExamInProgress
	s.page = 0
	s.remaining = s.def.DurationSeconds()
	s.warned = false
	s.startedAt = s.clock.Now()
	s.shuffle.Prime(s.def.Questions)

	var outcome *ExamOutcome
	if s.remaining <= 0 {
		outcome = s.finishLocked(models.EndReasonTimeout)
	} else {
		s.countdown = StartCountdown(s.clock, time.Second, s.tick)
	}
	s.mu.Unlock()

	s.logger.Info("Exam started", "duration_seconds", s.def.DurationSeconds(), "questions", len(s.def.Questions))
	s.complete(outcome)
	return nil
}

// Tick advances the countdown by one second. The running countdown calls it
// through tick; callers may also drive it directly.
func (s *ExamSession) Tick() {
	s.mu.Lock()
	if s.closed || s.state != ExamInProgress {
		s.mu.Unlock()
		return
	}
	s.advanceLocked()
}

func (s *ExamSession) tick(c *Countdown) {
	s.mu.Lock()
	if s.closed || s.state != ExamInProgress || s.countdown != c {
		s.mu.Unlock()
		return
	}
	s.advanceLocked()
}

// advanceLocked is entered with the lock held and releases it before running
// callbacks.
func (s *ExamSession) advanceLocked() {
	s.remaining--
	if s.remaining < 0 {
		s.remaining = 0
	}

	warn := -1
	if !s.warned && s.def.TimeWarning > 0 && s.remaining > 0 && s.remaining <= s.def.TimeWarning {
		s.warned = true
		warn = s.remaining
	}

	var outcome *ExamOutcome
	if s.remaining == 0 {
		outcome = s.finishLocked(models.EndReasonTimeout)
	}
	onWarning := s.onWarning
	s.mu.Unlock()

	if warn >= 0 && onWarning != nil {
		onWarning(warn)
	}
	if outcome != nil {
		s.logger.Info("Exam time expired", "score", outcome.Score, "passed", outcome.Passed)
	}
	s.complete(outcome)
}

func (s *ExamSession) SetAnswer(questionID string, answer models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return err
	}
	q, ok := s.byID[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if err := checkAnswer(q, answer); err != nil {
		return err
	}
	s.answers.Set(questionID, answer)
	return nil
}

func (s *ExamSession) SetMatchingEntry(questionID, left, right string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return err
	}
	q, ok := s.byID[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if err := checkMatchKey(q, left); err != nil {
		return err
	}
	s.answers.SetMatchingEntry(questionID, left, right)
	return nil
}

// NextPage moves forward one page. It does nothing on the last page.
func (s *ExamSession) NextPage() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return s.page, err
	}
	if s.page < s.totalPages()-1 {
		s.page++
	}
	return s.page, nil
}

// PrevPage moves back one page. It does nothing on the first page.
func (s *ExamSession) PrevPage() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWritable(); err != nil {
		return s.page, err
	}
	if s.page > 0 {
		s.page--
	}
	return s.page, nil
}

// CanSubmit reports whether manual submission is allowed right now: the exam
// is running, the learner is on the last page and every question on every
// page is answered.
func (s *ExamSession) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

func (s *ExamSession) canSubmitLocked() bool {
	return !s.closed &&
		s.state == ExamInProgress &&
		s.page == s.totalPages()-1 &&
		s.answers.AllAnswered(s.def.Questions)
}

// Submit grades the exam manually.
func (s *ExamSession) Submit() (ExamOutcome, error) {
	s.mu.Lock()
	if err := s.checkWritable(); err != nil {
		s.mu.Unlock()
		return ExamOutcome{}, err
	}
	if s.page != s.totalPages()-1 {
		s.mu.Unlock()
		return ExamOutcome{}, ErrNotOnLastPage
	}
	if !s.answers.AllAnswered(s.def.Questions) {
		s.mu.Unlock()
		return ExamOutcome{}, ErrNotAllAnswered
	}
	outcome := s.finishLocked(models.EndReasonManual)
	s.mu.Unlock()

	s.logger.Info("Exam submitted", "score", outcome.Score, "passed", outcome.Passed)
	s.complete(outcome)
	return *outcome, nil
}

// Retry returns a finished exam to not-started with everything cleared. A
// fresh shuffle is drawn on the next Start.
func (s *ExamSession) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.state != ExamFinished {
		return ErrExamNotFinished
	}

	s.answers.Clear()
	s.shuffle.Reset()
	s.page = 0
	s.remaining = s.def.DurationSeconds()
	s.warned = false
	s.outcome = nil
	s.state = ExamNotStarted

	s.logger.Info("Exam reset for retry")
	return nil
}

// Cancel stops the countdown without grading. The session cannot be used
// afterwards.
func (s *ExamSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopCountdownLocked()
	s.logger.Info("Exam session cancelled", "state", s.state)
}

func (s *ExamSession) State() ExamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ExamSession) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

func (s *ExamSession) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *ExamSession) TotalPages() int {
	return s.totalPages()
}

func (s *ExamSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Running reports whether a countdown is currently owned by the session.
func (s *ExamSession) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown != nil
}

func (s *ExamSession) Outcome() (ExamOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return ExamOutcome{}, false
	}
	return *s.outcome, true
}

func (s *ExamSession) Answers() map[string]models.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Snapshot()
}

func (s *ExamSession) Definition() models.ExamDefinition {
	return s.def
}

func (s *ExamSession) View() ExamView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := ExamView{
		Title:            s.def.Title,
		Description:      s.def.Description,
		State:            s.state,
		DurationSeconds:  s.def.DurationSeconds(),
		Remaining:        s.remaining,
		PassingScore:     s.def.PassingScore,
		Page:             s.page,
		TotalPages:       s.totalPages(),
		TotalQuestions:   len(s.def.Questions),
		AnsweredCount:    s.answers.AnsweredCount(s.def.Questions),
		CanSubmit:        s.canSubmitLocked(),
		QuestionsPerPage: QuestionsPerPage,
	}

	if s.state != ExamNotStarted {
		start, end := s.pageBounds(s.page)
		for _, q := range s.def.Questions[start:end] {
			v.Questions = append(v.Questions, questionView(q, s.shuffle, s.answers))
		}
		v.Answers = s.answers.Snapshot()
	}
	// Retry reuses the question set, so the learner never sees the key.
	if s.outcome != nil {
		outcome := *s.outcome
		outcome.Result = outcome.Result.Redacted()
		v.Outcome = &outcome
	}
	return v
}

func (s *ExamSession) totalPages() int {
	n := (len(s.def.Questions) + QuestionsPerPage - 1) / QuestionsPerPage
	if n < 1 {
		return 1
	}
	return n
}

func (s *ExamSession) pageBounds(page int) (int, int) {
	start := page * QuestionsPerPage
	end := start + QuestionsPerPage
	if end > len(s.def.Questions) {
		end = len(s.def.Questions)
	}
	return start, end
}

func (s *ExamSession) checkOpen() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

func (s *ExamSession) checkWritable() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	switch s.state {
	case ExamNotStarted:
		return ErrExamNotStarted
	case ExamFinished:
		return ErrExamFinished
	}
	return nil
}

// finishLocked moves to finished exactly once and returns the new outcome, or
// nil when the exam had already finished.
func (s *ExamSession) finishLocked(reason models.ExamEndReason) *ExamOutcome {
	if s.state == ExamFinished {
		return nil
	}

	result, err := Score(s.def.Questions, s.answers)
	if err != nil {
		// unreachable: empty question sets are rejected at construction
		s.logger.Error("Failed to score exam", "error", err)
	}
	score := result.Percent()

	s.state = ExamFinished
	s.answers.Freeze()
	s.stopCountdownLocked()
	s.outcome = &ExamOutcome{
		Result:     result,
		Score:      score,
		Passed:     Passed(score, s.def.PassingScore),
		Reason:     reason,
		TimeSpent:  s.def.DurationSeconds() - s.remaining,
		FinishedAt: s.clock.Now(),
	}
	return s.outcome
}

func (s *ExamSession) stopCountdownLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

func (s *ExamSession) complete(outcome *ExamOutcome) {
	if outcome == nil || s.onComplete == nil {
		return
	}
	s.onComplete(outcome.Score, outcome.Passed)
}
