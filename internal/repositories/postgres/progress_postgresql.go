package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

type ProgressPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (p *ProgressPostgreSQL) MarkComplete(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) (bool, error) {
	if progress.CompletedAt.IsZero() {
		progress.CompletedAt = time.Now()
	}
	result := p.helpers.Conn(ctx, tx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(progress)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record lesson progress: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (p *ProgressPostgreSQL) ListCompleted(ctx context.Context, tx *gorm.DB, courseID, learnerID string) ([]string, error) {
	var ids []string
	err := p.helpers.Conn(ctx, tx).
		Model(&models.LessonProgress{}).
		Where("course_id = ? AND learner_id = ?", courseID, learnerID).
		Order("completed_at ASC").
		Pluck("lesson_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
