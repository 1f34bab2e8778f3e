package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

type repositoryManager struct {
	db       *gorm.DB
	course   repositories.CourseRepository
	result   repositories.ResultRepository
	progress repositories.ProgressRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repositoryManager{
		db:       db,
		course:   NewCoursePostgreSQL(db),
		result:   NewResultPostgreSQL(db),
		progress: NewProgressPostgreSQL(db),
	}
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Course{},
		&models.QuizResult{},
		&models.ExamResult{},
		&models.LessonProgress{},
	)
}

func (r *repositoryManager) Course() repositories.CourseRepository     { return r.course }
func (r *repositoryManager) Result() repositories.ResultRepository     { return r.result }
func (r *repositoryManager) Progress() repositories.ProgressRepository { return r.progress }

func (r *repositoryManager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *repositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *repositoryManager) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
