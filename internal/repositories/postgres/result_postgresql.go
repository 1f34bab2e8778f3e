package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

var resultSortColumns = map[string]bool{"created_at": true}

type ResultPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ResultPostgreSQL) CreateQuizResult(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error {
	if err := r.helpers.Conn(ctx, tx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to store quiz result: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) CreateExamResult(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	if err := r.helpers.Conn(ctx, tx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to store exam result: %w", err)
	}
	return nil
}

func (r *ResultPostgreSQL) ListQuizResults(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	var results []*models.QuizResult
	var total int64

	query := r.helpers.Conn(ctx, tx).Model(&models.QuizResult{}).Where("course_id = ?", courseID)
	query = r.helpers.ApplyResultFilters(query, filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset, resultSortColumns)
	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *ResultPostgreSQL) ListExamResults(ctx context.Context, tx *gorm.DB, courseID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	var results []*models.ExamResult
	var total int64

	query := r.helpers.Conn(ctx, tx).Model(&models.ExamResult{}).Where("course_id = ?", courseID)
	query = r.helpers.ApplyResultFilters(query, filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset, resultSortColumns)
	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *ResultPostgreSQL) GetBestExamResult(ctx context.Context, tx *gorm.DB, courseID, learnerID string) (*models.ExamResult, error) {
	var result models.ExamResult
	err := r.helpers.Conn(ctx, tx).
		Where("course_id = ? AND learner_id = ?", courseID, learnerID).
		Order("score DESC, created_at ASC").
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetExamStats(ctx context.Context, tx *gorm.DB, courseID string) (*repositories.ExamStats, error) {
	var row struct {
		Total    int64
		Passed   int64
		TimedOut int64
		AvgScore float64
		AvgTime  float64
	}

	err := r.helpers.Conn(ctx, tx).
		Model(&models.ExamResult{}).
		Where("course_id = ?", courseID).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed,
			COALESCE(SUM(CASE WHEN end_reason = ? THEN 1 ELSE 0 END), 0) AS timed_out,
			COALESCE(AVG(score), 0) AS avg_score,
			COALESCE(AVG(time_spent), 0) AS avg_time`, models.EndReasonTimeout).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate exam results: %w", err)
	}

	stats := &repositories.ExamStats{
		TotalAttempts:    int(row.Total),
		PassedAttempts:   int(row.Passed),
		TimedOut:         int(row.TimedOut),
		AverageScore:     row.AvgScore,
		AverageTimeSpent: row.AvgTime,
	}
	if row.Total > 0 {
		stats.PassRate = float64(row.Passed) / float64(row.Total)
	}
	return stats, nil
}
