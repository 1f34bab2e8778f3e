package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/openlearnai/learning-service/internal/models"
)

// ResultRepository stores graded quiz and exam submissions.
type ResultRepository interface {
	CreateQuizResult(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error
	CreateExamResult(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error

	ListQuizResults(ctx context.Context, tx *gorm.DB, courseID string, filters ResultFilters) ([]*models.QuizResult, int64, error)
	ListExamResults(ctx context.Context, tx *gorm.DB, courseID string, filters ResultFilters) ([]*models.ExamResult, int64, error)
	GetBestExamResult(ctx context.Context, tx *gorm.DB, courseID, learnerID string) (*models.ExamResult, error)

	GetExamStats(ctx context.Context, tx *gorm.DB, courseID string) (*ExamStats, error)
}

// ProgressRepository stores completed lessons per learner.
type ProgressRepository interface {
	// MarkComplete reports false when the lesson was already recorded.
	MarkComplete(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) (bool, error)
	ListCompleted(ctx context.Context, tx *gorm.DB, courseID, learnerID string) ([]string, error)
}
