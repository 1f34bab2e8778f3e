package repositories

import (
	"context"

	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Level     string `json:"level" form:"level"`
	Search    string `json:"search" form:"search"`
	Limit     int    `json:"limit" form:"limit"`
	Offset    int    `json:"offset" form:"offset"`
	SortBy    string `json:"sort_by" form:"sort_by"`       // "created_at", "title"
	SortOrder string `json:"sort_order" form:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	LearnerID  string `json:"learner_id" form:"learner_id"`
	PassedOnly bool   `json:"passed_only" form:"passed_only"`
	Limit      int    `json:"limit" form:"limit"`
	Offset     int    `json:"offset" form:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type ExamStats struct {
	TotalAttempts    int     `json:"total_attempts"`
	PassedAttempts   int     `json:"passed_attempts"`
	TimedOut         int     `json:"timed_out"`
	AverageScore     float64 `json:"average_score"`
	PassRate         float64 `json:"pass_rate"`
	AverageTimeSpent float64 `json:"average_time_spent"`
}

// Repository groups every store the service needs. Methods that take a tx
// run on it when non-nil and on the default connection otherwise.
type Repository interface {
	Course() CourseRepository
	Result() ResultRepository
	Progress() ProgressRepository

	// Transaction runs fn inside one database transaction.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}
