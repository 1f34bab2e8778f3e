package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/openlearnai/learning-service/internal/cache"
	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

func testSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository bundles the repository mocks. Transactions run fn directly
// with a nil tx.
type MockRepository struct {
	course   *MockCourseRepository
	result   *MockResultRepository
	progress *MockProgressRepository
	pingErr  error
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		course:   &MockCourseRepository{},
		result:   &MockResultRepository{},
		progress: &MockProgressRepository{},
	}
}

func (m *MockRepository) Course() repositories.CourseRepository     { return m.course }
func (m *MockRepository) Result() repositories.ResultRepository     { return m.result }
func (m *MockRepository) Progress() repositories.ProgressRepository { return m.progress }

func (m *MockRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *MockRepository) Ping(ctx context.Context) error { return m.pingErr }
func (m *MockRepository) Close() error                   { return nil }

// MockCourseRepository is a mock implementation of CourseRepository
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	return m.Called(ctx, tx, course).Error(0)
}

func (m *MockCourseRepository) Upsert(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	return m.Called(ctx, tx, course).Error(0)
}

func (m *MockCourseRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	args := m.Called(ctx, tx, id)
	course, _ := args.Get(0).(*models.Course)
	return course, args.Error(1)
}

func (m *MockCourseRepository) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	return m.Called(ctx, tx, course).Error(0)
}

func (m *MockCourseRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockCourseRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	args := m.Called(ctx, tx, filters)
	courses, _ := args.Get(0).([]*models.Course)
	return courses, args.Get(1).(int64), args.Error(2)
}

func (m *MockCourseRepository) Exists(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) CreateQuizResult(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error {
	return m.Called(ctx, tx, result).Error(0)
}

func (m *MockResultRepository) CreateExamResult(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	return m.Called(ctx, tx, result).Error(0)
}

func (m *MockResultRepository) ListQuizResults(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	args := m.Called(ctx, tx, courseID, filters)
	results, _ := args.Get(0).([]*models.QuizResult)
	return results, args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) ListExamResults(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	args := m.Called(ctx, tx, courseID, filters)
	results, _ := args.Get(0).([]*models.ExamResult)
	return results, args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) GetBestExamResult(ctx context.Context, tx *gorm.DB, courseID, learnerID string) (*models.ExamResult, error) {
	args := m.Called(ctx, tx, courseID, learnerID)
	result, _ := args.Get(0).(*models.ExamResult)
	return result, args.Error(1)
}

func (m *MockResultRepository) GetExamStats(ctx context.Context, tx *gorm.DB, courseID string) (*repositories.ExamStats, error) {
	args := m.Called(ctx, tx, courseID)
	stats, _ := args.Get(0).(*repositories.ExamStats)
	return stats, args.Error(1)
}

// MockProgressRepository is a mock implementation of ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) MarkComplete(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) (bool, error) {
	args := m.Called(ctx, tx, progress)
	return args.Bool(0), args.Error(1)
}

func (m *MockProgressRepository) ListCompleted(ctx context.Context, tx *gorm.DB, courseID, learnerID string) ([]string, error) {
	args := m.Called(ctx, tx, courseID, learnerID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// MockCacheService is a mock implementation of cache.CacheService
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

// Get copies a *models.Course hit into dest.
func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	if hit, ok := args.Get(0).(*models.Course); ok {
		*dest.(*models.Course) = *hit
	}
	return args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheService) DeletePattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}

var _ cache.CacheService = (*MockCacheService)(nil)

// staticCourses serves fixed courses without a cache or database.
type staticCourses map[string]*models.Course

func (s staticCourses) GetCourse(_ context.Context, courseID string) (*models.Course, error) {
	if c, ok := s[courseID]; ok {
		return c, nil
	}
	return nil, ErrCourseNotFound
}

func (s staticCourses) ListCourses(context.Context, repositories.CourseFilters) (*CourseListResponse, error) {
	return &CourseListResponse{}, nil
}

func (s staticCourses) SaveCourse(context.Context, *models.Course) error { return nil }

func (s staticCourses) ImportQuestions(context.Context, string, string, io.Reader) (*ImportSummary, error) {
	return nil, ErrBadRequest
}

// fixtureCourse has one lesson of each kind and a one-minute final exam.
func fixtureCourse() *models.Course {
	return &models.Course{
		ID:    "c1",
		Title: "Fixture",
		Modules: []models.Module{
			{
				ID:    "m1",
				Title: "Basics",
				Lessons: []models.Lesson{
					{ID: "l1", Title: "Read", Kind: models.LessonContent, Content: "hello"},
					{ID: "l2", Title: "Check", Kind: models.LessonQuiz, Quiz: &models.Quiz{
						Title: "Check",
						Questions: []models.Question{
							{ID: "q1", Type: models.MultipleChoice, Text: "Pick b", Options: []string{"a", "b"}, CorrectIndex: models.IntPtr(1)},
						},
					}},
				},
			},
			{
				ID:    "m2",
				Title: "Review",
				Lessons: []models.Lesson{
					{ID: "l3", Title: "Module test", Kind: models.LessonAssessment, Quiz: &models.Quiz{
						Title:        "Module test",
						PassingScore: 100,
						Questions: []models.Question{
							{ID: "q2", Type: models.FillBlank, Text: "Language?", CorrectText: "go"},
						},
					}},
				},
			},
		},
		FinalExam: &models.ExamDefinition{
			Title:           "Final",
			DurationMinutes: 1,
			PassingScore:    50,
			TimeWarning:     30,
			Questions: []models.Question{
				{ID: "e1", Type: models.MultipleChoice, Text: "Pick a", Options: []string{"a", "b"}, CorrectIndex: models.IntPtr(0)},
				{ID: "e2", Type: models.FillBlank, Text: "Say yes", CorrectText: "yes"},
			},
		},
	}
}
