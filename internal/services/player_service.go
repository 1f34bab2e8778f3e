package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"k8s.io/utils/clock"

	"github.com/openlearnai/learning-service/internal/assessment"
	"github.com/openlearnai/learning-service/internal/events"
	"github.com/openlearnai/learning-service/internal/metrics"
	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

const backgroundTimeout = 10 * time.Second

type PlayerServiceDeps struct {
	Repo      repositories.Repository
	Courses   CourseService
	Progress  ProgressService
	Publisher events.EventPublisher
	Clock     clock.WithTicker // defaults to the wall clock
	Logger    *slog.Logger
}

// learningSession is one learner's player for one course. opMu serialises
// requests so state observed before and after an operation belongs to it.
type learningSession struct {
	opMu sync.Mutex

	id        string
	learnerID string
	courseID  string
	openedAt  time.Time
	lastSeen  time.Time
	player    *assessment.Player
}

type playerService struct {
	mu       sync.Mutex
	sessions map[string]*learningSession
	byOwner  map[string]string

	repo      repositories.Repository
	courses   CourseService
	progress  ProgressService
	publisher events.EventPublisher
	clock     clock.WithTicker
	engine    []assessment.Option
	logger    *ServiceLogger

	background sync.WaitGroup
}

func NewPlayerService(deps PlayerServiceDeps, opts ...assessment.Option) PlayerService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	engine := append([]assessment.Option{
		assessment.WithClock(clk),
		assessment.WithLogger(deps.Logger.With("component", "engine")),
	}, opts...)

	return &playerService{
		sessions:  make(map[string]*learningSession),
		byOwner:   make(map[string]string),
		repo:      deps.Repo,
		courses:   deps.Courses,
		progress:  deps.Progress,
		publisher: deps.Publisher,
		clock:     clk,
		engine:    engine,
		logger:    NewServiceLogger(deps.Logger, LogConfig{Service: "learning-service", Component: "player"}),
	}
}

// ===== SESSION LIFECYCLE =====

// Open returns the learner's live session for the course, creating one when
// there is none. Stored progress is restored into a new session.
func (s *playerService) Open(ctx context.Context, learnerID, courseID string) (resp *SessionResponse, err error) {
	op := s.logger.WithOperation(ctx, "open_session", learnerID)
	defer func() { op.LogResult(courseID, "course", err) }()

	if sess := s.existing(learnerID, courseID); sess != nil {
		return s.respond(sess), nil
	}

	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	sess := &learningSession{
		id:        uuid.NewString(),
		learnerID: learnerID,
		courseID:  courseID,
		openedAt:  s.clock.Now(),
		lastSeen:  s.clock.Now(),
	}

	opts := append(append([]assessment.Option{}, s.engine...),
		assessment.WithTimeWarning(func(remaining int) { s.examTimeWarning(sess, remaining) }),
	)
	player, err := assessment.NewPlayer(course, s.hooksFor(sess, course), opts...)
	if err != nil {
		return nil, translateEngineError(err)
	}
	sess.player = player

	completed, err := s.progress.CompletedLessons(ctx, learnerID, courseID)
	if err != nil {
		s.logger.Logger().WarnContext(ctx, "Starting session without stored progress", "course_id", courseID, "error", err)
	}
	player.Restore(completed)

	s.mu.Lock()
	// another request may have opened the same course meanwhile
	if id, ok := s.byOwner[ownerKey(learnerID, courseID)]; ok {
		winner := s.sessions[id]
		s.mu.Unlock()
		player.Close()
		return s.respond(winner), nil
	}
	s.sessions[sess.id] = sess
	s.byOwner[ownerKey(learnerID, courseID)] = sess.id
	s.mu.Unlock()
	metrics.ActiveSessions.Inc()

	return s.respond(sess), nil
}

func (s *playerService) Get(ctx context.Context, learnerID, sessionID string) (*SessionResponse, error) {
	sess, err := s.lookup(learnerID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.respond(sess), nil
}

// Close tears a session down. A running exam is cancelled without grading.
func (s *playerService) Close(ctx context.Context, learnerID, sessionID string) error {
	sess, err := s.lookup(learnerID, sessionID)
	if err != nil {
		return err
	}
	s.closeSession(ctx, sess)
	return nil
}

func (s *playerService) CloseAll() {
	s.mu.Lock()
	sessions := make([]*learningSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		s.closeSession(context.Background(), sess)
	}
	s.background.Wait()
}

// ReapIdle closes sessions untouched for longer than maxIdle and reports how
// many were closed. A session with a running exam is left to its countdown,
// which submits on timeout.
func (s *playerService) ReapIdle(ctx context.Context, maxIdle time.Duration) int {
	now := s.clock.Now()

	s.mu.Lock()
	var idle []*learningSession
	for _, sess := range s.sessions {
		if sess.opMu.TryLock() {
			if now.Sub(sess.lastSeen) > maxIdle {
				if _, running := runningExam(sess.player); !running {
					idle = append(idle, sess)
				}
			}
			sess.opMu.Unlock()
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		s.closeSession(ctx, sess)
	}
	if len(idle) > 0 {
		s.logger.Logger().InfoContext(ctx, "Idle sessions closed", "count", len(idle))
	}
	return len(idle)
}

func (s *playerService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ===== NAVIGATION =====

func (s *playerService) Navigate(ctx context.Context, learnerID, sessionID string, req *NavigateRequest) (*SessionResponse, error) {
	return s.withSession(learnerID, sessionID, func(sess *learningSession) error {
		return s.leavingExam(ctx, sess, func() error {
			var err error
			switch req.Action {
			case NavigateNext:
				_, err = sess.player.Next()
			case NavigatePrev:
				_, err = sess.player.Prev()
			case NavigateOpen:
				err = sess.player.Open(req.ModuleIndex, req.LessonIndex)
			case NavigateFinalExam:
				_, err = sess.player.OpenFinalExam()
			default:
				err = NewValidationError("action", "must be one of next prev open final_exam", req.Action)
			}
			return err
		})
	})
}

func (s *playerService) OpenLesson(ctx context.Context, learnerID, sessionID, lessonID string) (*SessionResponse, error) {
	return s.withSession(learnerID, sessionID, func(sess *learningSession) error {
		return s.leavingExam(ctx, sess, func() error {
			return sess.player.OpenLesson(lessonID)
		})
	})
}

// MarkLessonComplete completes a content lesson. Quiz and assessment lessons
// complete through their quiz.
func (s *playerService) MarkLessonComplete(ctx context.Context, learnerID, sessionID, lessonID string) (*SessionResponse, error) {
	return s.withSession(learnerID, sessionID, func(sess *learningSession) error {
		lesson, _, _, ok := sess.player.Course().FindLesson(lessonID)
		if !ok {
			return fmt.Errorf("%w: %s", assessment.ErrLessonNotFound, lessonID)
		}
		if lesson.Kind != models.LessonContent {
			return NewBusinessRuleError("lesson_completed_by_quiz", "quiz and assessment lessons complete when their quiz is submitted",
				map[string]any{"lesson_id": lessonID, "kind": lesson.Kind})
		}
		return sess.player.MarkComplete(lessonID)
	})
}

// ===== QUIZ BLOCKS =====

func (s *playerService) AnswerQuiz(ctx context.Context, learnerID, sessionID, lessonID string, req *AnswerRequest) (*assessment.QuizView, error) {
	return s.withQuiz(learnerID, sessionID, lessonID, func(block *assessment.QuizBlock) error {
		if req.Left != "" {
			return block.SetMatchingEntry(req.QuestionID, req.Left, req.Right)
		}
		if req.Answer == nil {
			return NewValidationError("answer", "is required", nil)
		}
		return block.SetAnswer(req.QuestionID, *req.Answer)
	})
}

func (s *playerService) SubmitQuiz(ctx context.Context, learnerID, sessionID, lessonID string) (view *assessment.QuizView, err error) {
	op := s.logger.WithOperation(ctx, "submit_quiz", learnerID)
	defer func() { op.LogResult(lessonID, "lesson", err) }()

	return s.withQuiz(learnerID, sessionID, lessonID, func(block *assessment.QuizBlock) error {
		_, err := block.Submit()
		return err
	})
}

func (s *playerService) ResetQuiz(ctx context.Context, learnerID, sessionID, lessonID string) (*assessment.QuizView, error) {
	return s.withQuiz(learnerID, sessionID, lessonID, func(block *assessment.QuizBlock) error {
		block.Reset()
		return nil
	})
}

// ===== FINAL EXAM =====

func (s *playerService) StartExam(ctx context.Context, learnerID, sessionID string) (view *assessment.ExamView, err error) {
	op := s.logger.WithOperation(ctx, "start_exam", learnerID)
	defer func() { op.LogResult(sessionID, "session", err) }()

	return s.withExam(learnerID, sessionID, true, func(sess *learningSession, exam *assessment.ExamSession) error {
		if err := exam.Start(); err != nil {
			return err
		}
		def := exam.Definition()
		s.publishAsync(sess, events.EventExamStarted, events.ExamStartedEvent{
			SessionID:       sess.id,
			ExamTitle:       def.Title,
			DurationSeconds: def.DurationSeconds(),
			TotalQuestions:  len(def.Questions),
			StartedAt:       s.clock.Now().UTC(),
		})
		return nil
	})
}

func (s *playerService) AnswerExam(ctx context.Context, learnerID, sessionID string, req *AnswerRequest) (*assessment.ExamView, error) {
	return s.withExam(learnerID, sessionID, false, func(_ *learningSession, exam *assessment.ExamSession) error {
		if req.Left != "" {
			return exam.SetMatchingEntry(req.QuestionID, req.Left, req.Right)
		}
		if req.Answer == nil {
			return NewValidationError("answer", "is required", nil)
		}
		return exam.SetAnswer(req.QuestionID, *req.Answer)
	})
}

func (s *playerService) ExamPage(ctx context.Context, learnerID, sessionID string, direction string) (*assessment.ExamView, error) {
	return s.withExam(learnerID, sessionID, false, func(_ *learningSession, exam *assessment.ExamSession) error {
		var err error
		switch direction {
		case PageNext:
			_, err = exam.NextPage()
		case PagePrev:
			_, err = exam.PrevPage()
		default:
			err = NewValidationError("direction", "must be next or prev", direction)
		}
		return err
	})
}

func (s *playerService) SubmitExam(ctx context.Context, learnerID, sessionID string) (view *assessment.ExamView, err error) {
	op := s.logger.WithOperation(ctx, "submit_exam", learnerID)
	defer func() { op.LogResult(sessionID, "session", err) }()

	return s.withExam(learnerID, sessionID, false, func(_ *learningSession, exam *assessment.ExamSession) error {
		_, err := exam.Submit()
		return err
	})
}

func (s *playerService) RetryExam(ctx context.Context, learnerID, sessionID string) (*assessment.ExamView, error) {
	return s.withExam(learnerID, sessionID, false, func(_ *learningSession, exam *assessment.ExamSession) error {
		return exam.Retry()
	})
}

// ===== ENGINE HOOKS =====

// hooksFor binds engine callbacks to one session. They run without engine
// locks and only hand work to background goroutines.
func (s *playerService) hooksFor(sess *learningSession, course *models.Course) assessment.PlayerHooks {
	return assessment.PlayerHooks{
		LessonCompleted: func(lessonID string) {
			progress := sess.player.Progress()
			s.spawn(func(ctx context.Context) {
				if err := s.progress.MarkLessonComplete(ctx, sess.learnerID, sess.courseID, lessonID, progress); err != nil {
					s.logger.Logger().ErrorContext(ctx, "Failed to persist lesson completion",
						"session_id", sess.id, "lesson_id", lessonID, "error", err)
				}
			})
		},
		QuizCompleted: func(lessonID string, result assessment.Result) {
			s.quizCompleted(sess, course, lessonID, result)
		},
		ExamCompleted: func(outcome assessment.ExamOutcome) {
			s.examCompleted(sess, outcome)
		},
	}
}

func (s *playerService) quizCompleted(sess *learningSession, course *models.Course, lessonID string, result assessment.Result) {
	lesson, _, _, ok := course.FindLesson(lessonID)
	if !ok {
		return
	}
	percent := result.Percent()
	passed := assessment.Passed(percent, lesson.Quiz.PassingScore)
	metrics.ObserveQuiz(string(lesson.Kind), passed)

	record := &models.QuizResult{
		SessionID:   sess.id,
		CourseID:    sess.courseID,
		LessonID:    lessonID,
		LearnerID:   sess.learnerID,
		Correct:     result.Correct,
		Total:       result.Total,
		Score:       percent,
		Passed:      passed,
		Answers:     answersJSON(result),
		SubmittedAt: s.clock.Now().UTC(),
	}
	s.spawn(func(ctx context.Context) {
		if err := s.repo.Result().CreateQuizResult(ctx, nil, record); err != nil {
			s.logger.Logger().ErrorContext(ctx, "Failed to store quiz result", "session_id", sess.id, "lesson_id", lessonID, "error", err)
		}
	})
	s.publishAsync(sess, events.EventQuizCompleted, events.QuizCompletedEvent{
		SessionID: sess.id,
		LessonID:  lessonID,
		Correct:   result.Correct,
		Total:     result.Total,
		Score:     percent,
		Passed:    passed,
	})
}

func (s *playerService) examCompleted(sess *learningSession, outcome assessment.ExamOutcome) {
	metrics.ObserveExam(string(outcome.Reason), outcome.Passed, outcome.Score)

	record := &models.ExamResult{
		SessionID:   sess.id,
		CourseID:    sess.courseID,
		LearnerID:   sess.learnerID,
		Score:       outcome.Score,
		Correct:     outcome.Result.Correct,
		Total:       outcome.Result.Total,
		Passed:      outcome.Passed,
		EndReason:   outcome.Reason,
		TimeSpent:   outcome.TimeSpent,
		Answers:     answersJSON(outcome.Result),
		SubmittedAt: outcome.FinishedAt.UTC(),
	}
	s.spawn(func(ctx context.Context) {
		if err := s.repo.Result().CreateExamResult(ctx, nil, record); err != nil {
			s.logger.Logger().ErrorContext(ctx, "Failed to store exam result", "session_id", sess.id, "error", err)
		}
	})
	s.publishAsync(sess, events.EventExamSubmitted, events.ExamSubmittedEvent{
		SessionID: sess.id,
		Score:     outcome.Score,
		Passed:    outcome.Passed,
		Correct:   outcome.Result.Correct,
		Total:     outcome.Result.Total,
		Reason:    string(outcome.Reason),
		TimeSpent: outcome.TimeSpent,
	})
}

func (s *playerService) examTimeWarning(sess *learningSession, remaining int) {
	s.publishAsync(sess, events.EventExamTimeWarning, events.ExamTimeWarningEvent{
		SessionID:        sess.id,
		RemainingSeconds: remaining,
	})
}

// ===== HELPERS =====

func (s *playerService) withSession(learnerID, sessionID string, fn func(*learningSession) error) (*SessionResponse, error) {
	sess, err := s.lookup(learnerID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.opMu.Lock()
	sess.lastSeen = s.clock.Now()
	err = fn(sess)
	sess.opMu.Unlock()
	if err != nil {
		return nil, translateEngineError(err)
	}
	return s.respond(sess), nil
}

func (s *playerService) withQuiz(learnerID, sessionID, lessonID string, fn func(*assessment.QuizBlock) error) (*assessment.QuizView, error) {
	sess, err := s.lookup(learnerID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.opMu.Lock()
	defer sess.opMu.Unlock()
	sess.lastSeen = s.clock.Now()

	block, err := sess.player.Quiz(lessonID)
	if err != nil {
		return nil, translateEngineError(err)
	}
	if err := fn(block); err != nil {
		return nil, translateEngineError(err)
	}
	view := block.View()
	return &view, nil
}

// withExam runs fn on the session's final exam. open switches the player to
// the exam view first.
func (s *playerService) withExam(learnerID, sessionID string, open bool, fn func(*learningSession, *assessment.ExamSession) error) (*assessment.ExamView, error) {
	sess, err := s.lookup(learnerID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.opMu.Lock()
	defer sess.opMu.Unlock()
	sess.lastSeen = s.clock.Now()

	var exam *assessment.ExamSession
	if open {
		exam, err = sess.player.OpenFinalExam()
	} else {
		exam, err = sess.player.Exam()
	}
	if err != nil {
		return nil, translateEngineError(err)
	}
	if err := fn(sess, exam); err != nil {
		return nil, translateEngineError(err)
	}
	view := exam.View()
	return &view, nil
}

// leavingExam runs a navigation and reports an exam the learner walked away
// from while it was running.
func (s *playerService) leavingExam(ctx context.Context, sess *learningSession, move func() error) error {
	remaining, running := runningExam(sess.player)
	if err := move(); err != nil {
		return err
	}
	if running && sess.player.Mode() != assessment.ViewFinalExam {
		s.logger.Logger().InfoContext(ctx, "Running exam abandoned by navigation", "session_id", sess.id)
		s.publishAsync(sess, events.EventExamAbandoned, events.ExamAbandonedEvent{
			SessionID:        sess.id,
			RemainingSeconds: remaining,
		})
	}
	return nil
}

func (s *playerService) closeSession(ctx context.Context, sess *learningSession) {
	s.mu.Lock()
	if _, ok := s.sessions[sess.id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, sess.id)
	delete(s.byOwner, ownerKey(sess.learnerID, sess.courseID))
	s.mu.Unlock()
	metrics.ActiveSessions.Dec()

	sess.opMu.Lock()
	remaining, running := runningExam(sess.player)
	sess.player.Close()
	sess.opMu.Unlock()

	if running {
		s.publishAsync(sess, events.EventExamAbandoned, events.ExamAbandonedEvent{
			SessionID:        sess.id,
			RemainingSeconds: remaining,
		})
	}
	s.logger.Logger().InfoContext(ctx, "Learning session closed", "session_id", sess.id, "exam_abandoned", running)
}

func (s *playerService) existing(learnerID, courseID string) *learningSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byOwner[ownerKey(learnerID, courseID)]; ok {
		return s.sessions[id]
	}
	return nil
}

func (s *playerService) lookup(learnerID, sessionID string) (*learningSession, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if sess.learnerID != learnerID {
		return nil, NewPermissionError(learnerID, sessionID, "session", "access", "session belongs to another learner")
	}
	return sess, nil
}

func (s *playerService) respond(sess *learningSession) *SessionResponse {
	return &SessionResponse{
		SessionID: sess.id,
		LearnerID: sess.learnerID,
		OpenedAt:  sess.openedAt,
		Player:    sess.player.Current(),
	}
}

func (s *playerService) publishAsync(sess *learningSession, eventType events.EventType, data any) {
	event := events.NewLearningEvent(eventType, sess.learnerID, sess.courseID, data)
	s.spawn(func(ctx context.Context) {
		if err := s.publisher.Publish(ctx, event); err != nil {
			metrics.EventPublishFailures.WithLabelValues(string(eventType)).Inc()
			s.logger.Logger().WarnContext(ctx, "Failed to publish learning event",
				"event_type", eventType, "session_id", sess.id, "error", err)
		}
	})
}

// spawn runs fn in the background. The engine never waits on it; CloseAll does.
func (s *playerService) spawn(fn func(ctx context.Context)) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.logger.LogRecovery(ctx, "background_task", r, debug.Stack())
			}
		}()
		fn(ctx)
	}()
}

// wait blocks until every background task has finished.
func (s *playerService) wait() {
	s.background.Wait()
}

func runningExam(player *assessment.Player) (int, bool) {
	if player.Mode() != assessment.ViewFinalExam {
		return 0, false
	}
	view := player.Current()
	if view.Exam == nil || view.Exam.State != assessment.ExamInProgress {
		return 0, false
	}
	return view.Exam.Remaining, true
}

func answersJSON(result assessment.Result) datatypes.JSON {
	answers := make(map[string]models.Answer, len(result.Outcomes))
	for _, o := range result.Outcomes {
		if o.Answer != nil {
			answers[o.QuestionID] = *o.Answer
		}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

func ownerKey(learnerID, courseID string) string {
	return learnerID + "\x1f" + courseID
}
