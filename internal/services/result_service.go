package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

const exportPageSize = 100

var examExportHeaders = []string{
	"Learner", "Session", "Score (%)", "Correct", "Total", "Passed", "End Reason", "Time Spent (s)", "Submitted At",
}

type resultService struct {
	repo    repositories.Repository
	courses CourseService
	logger  *ServiceLogger
}

func NewResultService(repo repositories.Repository, courses CourseService, logger *slog.Logger) ResultService {
	return &resultService{
		repo:    repo,
		courses: courses,
		logger:  NewServiceLogger(logger, LogConfig{Service: "learning-service", Component: "results"}),
	}
}

func (s *resultService) ListExamResults(ctx context.Context, courseID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	return s.repo.Result().ListExamResults(ctx, nil, courseID, filters)
}

func (s *resultService) ListQuizResults(ctx context.Context, courseID string, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	return s.repo.Result().ListQuizResults(ctx, nil, courseID, filters)
}

func (s *resultService) ExamStats(ctx context.Context, courseID string) (*repositories.ExamStats, error) {
	if _, err := s.courses.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.repo.Result().GetExamStats(ctx, nil, courseID)
}

func (s *resultService) ExportExamResults(ctx context.Context, courseID string, w io.Writer) (err error) {
	op := s.logger.WithOperation(ctx, "export_exam_results", "")
	defer func() { op.LogResult(courseID, "course", err) }()

	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Exam Results"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	for i, header := range examExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	row := 2
	for offset := 0; ; offset += exportPageSize {
		results, total, err := s.repo.Result().ListExamResults(ctx, nil, courseID, repositories.ResultFilters{
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("failed to load exam results: %w", err)
		}
		for _, r := range results {
			values := []any{
				r.LearnerID, r.SessionID, r.Score, r.Correct, r.Total, r.Passed,
				string(r.EndReason), r.TimeSpent, r.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
			}
			for col, value := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				f.SetCellValue(sheetName, cell, value)
			}
			row++
		}
		if len(results) == 0 || int64(offset+len(results)) >= total {
			break
		}
	}

	f.SetDocProps(&excelize.DocProperties{
		Title:   course.Title + " - exam results",
		Creator: "learning-service",
	})

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.Logger().InfoContext(ctx, "Exam results exported", "course_id", courseID, "rows", row-2)
	return nil
}
