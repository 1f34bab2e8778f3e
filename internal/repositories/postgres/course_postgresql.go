package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

var courseSortColumns = map[string]bool{"created_at": true, "updated_at": true, "title": true}

type CoursePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.helpers.Conn(ctx, tx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (c *CoursePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	err := c.helpers.Conn(ctx, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "instructor", "level", "modules", "final_exam", "updated_at", "deleted_at",
		}),
	}).Create(course).Error
	if err != nil {
		return fmt.Errorf("failed to upsert course %s: %w", course.ID, err)
	}
	return nil
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	var course models.Course
	if err := c.helpers.Conn(ctx, tx).Where("id = ?", id).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	result := c.helpers.Conn(ctx, tx).Model(&models.Course{}).Where("id = ?", course.ID).Updates(map[string]any{
		"title":       course.Title,
		"description": course.Description,
		"instructor":  course.Instructor,
		"level":       course.Level,
		"modules":     course.Modules,
		"final_exam":  course.FinalExam,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update course %s: %w", course.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := c.helpers.Conn(ctx, tx).Where("id = ?", id).Delete(&models.Course{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	query := c.helpers.Conn(ctx, tx).Model(&models.Course{})
	if filters.Level != "" {
		query = query.Where("level = ?", filters.Level)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, courseSortColumns)
	// the catalogue never needs lesson bodies
	if err := query.Omit("modules", "final_exam").Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (c *CoursePostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	var count int64
	if err := c.helpers.Conn(ctx, tx).Model(&models.Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
