package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/openlearnai/learning-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SharedHelpers holds query pieces reused by every table.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// Conn returns tx when the caller is inside a transaction, the default pool otherwise.
func (h *SharedHelpers) Conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return h.db.WithContext(ctx)
}

// ApplyPaginationAndSort only sorts on whitelisted columns.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int, allowed map[string]bool) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		sortBy = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		order = "ASC"
	}
	query = query.Order(sortBy + " " + order)

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}

func (h *SharedHelpers) ApplyResultFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.LearnerID != "" {
		query = query.Where("learner_id = ?", filters.LearnerID)
	}
	if filters.PassedOnly {
		query = query.Where("passed = ?", true)
	}
	return query
}
