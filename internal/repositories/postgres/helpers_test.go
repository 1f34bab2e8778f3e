package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

// dryRunDB renders SQL without a live server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestApplyPaginationAndSort(t *testing.T) {
	db := dryRunDB(t)
	h := NewSharedHelpers(db)

	tests := []struct {
		name          string
		sortBy, order string
		limit, offset int
		wantOrder     string
		wantLimit     string
	}{
		{"defaults", "", "", 0, 0, "ORDER BY created_at DESC", "LIMIT 20"},
		{"whitelisted asc", "title", "ASC", 5, 10, "ORDER BY title ASC", "LIMIT 5 OFFSET 10"},
		{"unknown column falls back", "password; DROP", "asc", 1000, -3, "ORDER BY created_at ASC", "LIMIT 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				q := h.ApplyPaginationAndSort(tx.Model(&models.Course{}), tt.sortBy, tt.order, tt.limit, tt.offset, courseSortColumns)
				return q.Find(&[]models.Course{})
			})
			assert.Contains(t, sql, tt.wantOrder)
			assert.Contains(t, sql, tt.wantLimit)
			assert.NotContains(t, sql, "DROP")
		})
	}
}

func TestApplyResultFilters(t *testing.T) {
	db := dryRunDB(t)
	h := NewSharedHelpers(db)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		q := h.ApplyResultFilters(tx.Model(&models.ExamResult{}), repositories.ResultFilters{
			LearnerID:  "learner-1",
			PassedOnly: true,
		})
		return q.Find(&[]models.ExamResult{})
	})

	assert.Contains(t, sql, "learner_id = 'learner-1'")
	assert.Contains(t, sql, "passed = true")
}
