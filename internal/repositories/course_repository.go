package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/openlearnai/learning-service/internal/models"
)

// CourseRepository interface for course content operations
type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	// Upsert inserts the course or replaces its content when the id exists.
	Upsert(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	Exists(ctx context.Context, tx *gorm.DB, id string) (bool, error)
}
