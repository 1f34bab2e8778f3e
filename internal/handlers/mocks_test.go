package handlers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/openlearnai/learning-service/internal/assessment"
	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
	"github.com/openlearnai/learning-service/internal/services"
	"github.com/openlearnai/learning-service/internal/utils"
)

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// MockCourseService is a mock implementation of services.CourseService
type MockCourseService struct {
	mock.Mock
}

func (m *MockCourseService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	args := m.Called(ctx, courseID)
	course, _ := args.Get(0).(*models.Course)
	return course, args.Error(1)
}

func (m *MockCourseService) ListCourses(ctx context.Context, filters repositories.CourseFilters) (*services.CourseListResponse, error) {
	args := m.Called(ctx, filters)
	resp, _ := args.Get(0).(*services.CourseListResponse)
	return resp, args.Error(1)
}

func (m *MockCourseService) SaveCourse(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseService) ImportQuestions(ctx context.Context, courseID, lessonID string, r io.Reader) (*services.ImportSummary, error) {
	args := m.Called(ctx, courseID, lessonID, r)
	summary, _ := args.Get(0).(*services.ImportSummary)
	return summary, args.Error(1)
}

// MockProgressService is a mock implementation of services.ProgressService
type MockProgressService struct {
	mock.Mock
}

func (m *MockProgressService) MarkLessonComplete(ctx context.Context, learnerID, courseID, lessonID string, progress int) error {
	args := m.Called(ctx, learnerID, courseID, lessonID, progress)
	return args.Error(0)
}

func (m *MockProgressService) CompletedLessons(ctx context.Context, learnerID, courseID string) ([]string, error) {
	args := m.Called(ctx, learnerID, courseID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockProgressService) GetProgress(ctx context.Context, learnerID, courseID string) (*services.ProgressResponse, error) {
	args := m.Called(ctx, learnerID, courseID)
	resp, _ := args.Get(0).(*services.ProgressResponse)
	return resp, args.Error(1)
}

// MockResultService is a mock implementation of services.ResultService
type MockResultService struct {
	mock.Mock
}

func (m *MockResultService) ListExamResults(ctx context.Context, courseID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	args := m.Called(ctx, courseID, filters)
	results, _ := args.Get(0).([]*models.ExamResult)
	return results, args.Get(1).(int64), args.Error(2)
}

func (m *MockResultService) ListQuizResults(ctx context.Context, courseID string, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	args := m.Called(ctx, courseID, filters)
	results, _ := args.Get(0).([]*models.QuizResult)
	return results, args.Get(1).(int64), args.Error(2)
}

func (m *MockResultService) ExamStats(ctx context.Context, courseID string) (*repositories.ExamStats, error) {
	args := m.Called(ctx, courseID)
	stats, _ := args.Get(0).(*repositories.ExamStats)
	return stats, args.Error(1)
}

func (m *MockResultService) ExportExamResults(ctx context.Context, courseID string, w io.Writer) error {
	args := m.Called(ctx, courseID, w)
	if payload, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, payload)
	}
	return args.Error(1)
}

// MockPlayerService is a mock implementation of services.PlayerService
type MockPlayerService struct {
	mock.Mock
}

func (m *MockPlayerService) session(args mock.Arguments) (*services.SessionResponse, error) {
	resp, _ := args.Get(0).(*services.SessionResponse)
	return resp, args.Error(1)
}

func (m *MockPlayerService) quiz(args mock.Arguments) (*assessment.QuizView, error) {
	view, _ := args.Get(0).(*assessment.QuizView)
	return view, args.Error(1)
}

func (m *MockPlayerService) exam(args mock.Arguments) (*assessment.ExamView, error) {
	view, _ := args.Get(0).(*assessment.ExamView)
	return view, args.Error(1)
}

func (m *MockPlayerService) Open(ctx context.Context, learnerID, courseID string) (*services.SessionResponse, error) {
	return m.session(m.Called(ctx, learnerID, courseID))
}

func (m *MockPlayerService) Get(ctx context.Context, learnerID, sessionID string) (*services.SessionResponse, error) {
	return m.session(m.Called(ctx, learnerID, sessionID))
}

func (m *MockPlayerService) Navigate(ctx context.Context, learnerID, sessionID string, req *services.NavigateRequest) (*services.SessionResponse, error) {
	return m.session(m.Called(ctx, learnerID, sessionID, req))
}

func (m *MockPlayerService) OpenLesson(ctx context.Context, learnerID, sessionID, lessonID string) (*services.SessionResponse, error) {
	return m.session(m.Called(ctx, learnerID, sessionID, lessonID))
}

func (m *MockPlayerService) MarkLessonComplete(ctx context.Context, learnerID, sessionID, lessonID string) (*services.SessionResponse, error) {
	return m.session(m.Called(ctx, learnerID, sessionID, lessonID))
}

func (m *MockPlayerService) AnswerQuiz(ctx context.Context, learnerID, sessionID, lessonID string, req *services.AnswerRequest) (*assessment.QuizView, error) {
	return m.quiz(m.Called(ctx, learnerID, sessionID, lessonID, req))
}

func (m *MockPlayerService) SubmitQuiz(ctx context.Context, learnerID, sessionID, lessonID string) (*assessment.QuizView, error) {
	return m.quiz(m.Called(ctx, learnerID, sessionID, lessonID))
}

func (m *MockPlayerService) ResetQuiz(ctx context.Context, learnerID, sessionID, lessonID string) (*assessment.QuizView, error) {
	return m.quiz(m.Called(ctx, learnerID, sessionID, lessonID))
}

func (m *MockPlayerService) StartExam(ctx context.Context, learnerID, sessionID string) (*assessment.ExamView, error) {
	return m.exam(m.Called(ctx, learnerID, sessionID))
}

func (m *MockPlayerService) AnswerExam(ctx context.Context, learnerID, sessionID string, req *services.AnswerRequest) (*assessment.ExamView, error) {
	return m.exam(m.Called(ctx, learnerID, sessionID, req))
}

func (m *MockPlayerService) ExamPage(ctx context.Context, learnerID, sessionID string, direction string) (*assessment.ExamView, error) {
	return m.exam(m.Called(ctx, learnerID, sessionID, direction))
}

func (m *MockPlayerService) SubmitExam(ctx context.Context, learnerID, sessionID string) (*assessment.ExamView, error) {
	return m.exam(m.Called(ctx, learnerID, sessionID))
}

func (m *MockPlayerService) RetryExam(ctx context.Context, learnerID, sessionID string) (*assessment.ExamView, error) {
	return m.exam(m.Called(ctx, learnerID, sessionID))
}

func (m *MockPlayerService) Close(ctx context.Context, learnerID, sessionID string) error {
	return m.Called(ctx, learnerID, sessionID).Error(0)
}

func (m *MockPlayerService) ReapIdle(ctx context.Context, maxIdle time.Duration) int {
	return m.Called(ctx, maxIdle).Int(0)
}

func (m *MockPlayerService) CloseAll() {
	m.Called()
}

func (m *MockPlayerService) ActiveSessions() int {
	return m.Called().Int(0)
}

type mockServiceManager struct {
	course   *MockCourseService
	player   *MockPlayerService
	progress *MockProgressService
	result   *MockResultService
}

func newMockServiceManager() *mockServiceManager {
	return &mockServiceManager{
		course:   &MockCourseService{},
		player:   &MockPlayerService{},
		progress: &MockProgressService{},
		result:   &MockResultService{},
	}
}

func (m *mockServiceManager) Course() services.CourseService     { return m.course }
func (m *mockServiceManager) Player() services.PlayerService     { return m.player }
func (m *mockServiceManager) Progress() services.ProgressService { return m.progress }
func (m *mockServiceManager) Result() services.ResultService     { return m.result }

type stubVerifier struct {
	tokens map[string]Identity
}

func (v stubVerifier) VerifyToken(token string) (Identity, error) {
	if identity, ok := v.tokens[token]; ok {
		return identity, nil
	}
	return Identity{}, errMissingSubject
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
