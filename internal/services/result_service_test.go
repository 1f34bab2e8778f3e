package services

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

func examResults(n, offset int) []*models.ExamResult {
	out := make([]*models.ExamResult, n)
	for i := range out {
		out[i] = &models.ExamResult{
			LearnerID:   fmt.Sprintf("learner-%d", offset+i),
			SessionID:   "s",
			Score:       70,
			Correct:     7,
			Total:       10,
			Passed:      true,
			EndReason:   models.EndReasonManual,
			TimeSpent:   300,
			SubmittedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func TestResultService_ExportExamResults_Pages(t *testing.T) {
	repo := newMockRepository()
	repo.result.On("ListExamResults", mock.Anything, mock.Anything, "c1", repositories.ResultFilters{Limit: exportPageSize, Offset: 0}).
		Return(examResults(exportPageSize, 0), int64(exportPageSize+2), nil)
	repo.result.On("ListExamResults", mock.Anything, mock.Anything, "c1", repositories.ResultFilters{Limit: exportPageSize, Offset: exportPageSize}).
		Return(examResults(2, exportPageSize), int64(exportPageSize+2), nil)
	svc := NewResultService(repo, staticCourses{"c1": fixtureCourse()}, testSlog())

	var buf bytes.Buffer
	require.NoError(t, svc.ExportExamResults(context.Background(), "c1", &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Exam Results")
	require.NoError(t, err)
	require.Len(t, rows, exportPageSize+3)
	assert.Equal(t, "Learner", rows[0][0])
	assert.Equal(t, "learner-0", rows[1][0])
	assert.Equal(t, fmt.Sprintf("learner-%d", exportPageSize+1), rows[len(rows)-1][0])
	assert.Equal(t, "manual", rows[1][6])
	repo.result.AssertExpectations(t)
}

func TestResultService_ExportExamResults_UnknownCourse(t *testing.T) {
	repo := newMockRepository()
	svc := NewResultService(repo, staticCourses{}, testSlog())

	err := svc.ExportExamResults(context.Background(), "nope", &bytes.Buffer{})

	assert.ErrorIs(t, err, ErrCourseNotFound)
	repo.result.AssertNotCalled(t, "ListExamResults", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResultService_ExamStats(t *testing.T) {
	repo := newMockRepository()
	stats := &repositories.ExamStats{TotalAttempts: 4, PassedAttempts: 3, PassRate: 75}
	repo.result.On("GetExamStats", mock.Anything, mock.Anything, "c1").Return(stats, nil)
	svc := NewResultService(repo, staticCourses{"c1": fixtureCourse()}, testSlog())

	got, err := svc.ExamStats(context.Background(), "c1")

	require.NoError(t, err)
	assert.Equal(t, 75.0, got.PassRate)

	_, err = svc.ExamStats(context.Background(), "nope")
	assert.True(t, IsNotFound(err))
}
