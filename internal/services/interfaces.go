package services

import (
	"context"
	"io"
	"time"

	"github.com/openlearnai/learning-service/internal/assessment"
	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

// ===== COURSE SERVICE =====

type CourseService interface {
	// GetCourse returns validated course content, served from cache when warm.
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	ListCourses(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error)
	// SaveCourse validates and stores a course, replacing any previous version.
	SaveCourse(ctx context.Context, course *models.Course) error
	// ImportQuestions appends questions read from an xlsx sheet to a lesson quiz.
	ImportQuestions(ctx context.Context, courseID, lessonID string, r io.Reader) (*ImportSummary, error)
}

type CourseSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Instructor   string    `json:"instructor"`
	Level        string    `json:"level"`
	HasFinalExam bool      `json:"has_final_exam"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CourseListResponse struct {
	Courses []CourseSummary `json:"courses"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type ImportSummary struct {
	CourseID string `json:"course_id"`
	LessonID string `json:"lesson_id"`
	Imported int    `json:"imported"`
	Total    int    `json:"total_questions"`
}

// ===== PLAYER SERVICE =====

// PlayerService hosts one in-memory Player per learner and course.
type PlayerService interface {
	Open(ctx context.Context, learnerID, courseID string) (*SessionResponse, error)
	Get(ctx context.Context, learnerID, sessionID string) (*SessionResponse, error)
	Navigate(ctx context.Context, learnerID, sessionID string, req *NavigateRequest) (*SessionResponse, error)
	OpenLesson(ctx context.Context, learnerID, sessionID, lessonID string) (*SessionResponse, error)
	MarkLessonComplete(ctx context.Context, learnerID, sessionID, lessonID string) (*SessionResponse, error)

	AnswerQuiz(ctx context.Context, learnerID, sessionID, lessonID string, req *AnswerRequest) (*assessment.QuizView, error)
	SubmitQuiz(ctx context.Context, learnerID, sessionID, lessonID string) (*assessment.QuizView, error)
	ResetQuiz(ctx context.Context, learnerID, sessionID, lessonID string) (*assessment.QuizView, error)

	StartExam(ctx context.Context, learnerID, sessionID string) (*assessment.ExamView, error)
	AnswerExam(ctx context.Context, learnerID, sessionID string, req *AnswerRequest) (*assessment.ExamView, error)
	ExamPage(ctx context.Context, learnerID, sessionID string, direction string) (*assessment.ExamView, error)
	SubmitExam(ctx context.Context, learnerID, sessionID string) (*assessment.ExamView, error)
	RetryExam(ctx context.Context, learnerID, sessionID string) (*assessment.ExamView, error)

	Close(ctx context.Context, learnerID, sessionID string) error
	// ReapIdle closes sessions untouched for longer than maxIdle.
	ReapIdle(ctx context.Context, maxIdle time.Duration) int
	// CloseAll tears down every live session; used on shutdown.
	CloseAll()
	ActiveSessions() int
}

type SessionResponse struct {
	SessionID string                `json:"session_id"`
	LearnerID string                `json:"learner_id"`
	OpenedAt  time.Time             `json:"opened_at"`
	Player    assessment.PlayerView `json:"player"`
}

const (
	NavigateNext      = "next"
	NavigatePrev      = "prev"
	NavigateOpen      = "open"
	NavigateFinalExam = "final_exam"

	PageNext = "next"
	PagePrev = "prev"
)

type NavigateRequest struct {
	Action      string `json:"action" validate:"required,oneof=next prev open final_exam"`
	ModuleIndex int    `json:"module_index" validate:"min=0"`
	LessonIndex int    `json:"lesson_index" validate:"min=0"`
}

// AnswerRequest either replaces a whole answer or, when Left is set, merges
// one matching entry.
type AnswerRequest struct {
	QuestionID string         `json:"question_id" validate:"required"`
	Answer     *models.Answer `json:"answer,omitempty" validate:"required_without=Left"`
	Left       string         `json:"left,omitempty"`
	Right      string         `json:"right,omitempty"`
}

// ===== PROGRESS SERVICE =====

type ProgressService interface {
	// MarkLessonComplete records a completion once; repeats are ignored.
	MarkLessonComplete(ctx context.Context, learnerID, courseID, lessonID string, progress int) error
	CompletedLessons(ctx context.Context, learnerID, courseID string) ([]string, error)
	GetProgress(ctx context.Context, learnerID, courseID string) (*ProgressResponse, error)
}

type ProgressResponse struct {
	CourseID         string             `json:"course_id"`
	LearnerID        string             `json:"learner_id"`
	CompletedLessons []string           `json:"completed_lessons"`
	TotalLessons     int                `json:"total_lessons"`
	Percent          int                `json:"percent"`
	BestExam         *models.ExamResult `json:"best_exam,omitempty"`
}

// ===== RESULT / EXPORT SERVICE =====

type ResultService interface {
	ListExamResults(ctx context.Context, courseID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error)
	ListQuizResults(ctx context.Context, courseID string, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error)
	ExamStats(ctx context.Context, courseID string) (*repositories.ExamStats, error)
	// ExportExamResults writes every exam result of a course as an xlsx workbook.
	ExportExamResults(ctx context.Context, courseID string, w io.Writer) error
}
