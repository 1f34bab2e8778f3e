package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"k8s.io/utils/clock"

	"github.com/openlearnai/learning-service/internal/assessment"
	"github.com/openlearnai/learning-service/internal/events"
	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
)

type progressService struct {
	repo      repositories.Repository
	courses   CourseService
	publisher events.EventPublisher
	clock     clock.PassiveClock
	logger    *ServiceLogger
}

// NewProgressService records lesson completions. A nil clock means the wall
// clock.
func NewProgressService(repo repositories.Repository, courses CourseService, publisher events.EventPublisher, clk clock.PassiveClock, logger *slog.Logger) ProgressService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &progressService{
		repo:      repo,
		courses:   courses,
		publisher: publisher,
		clock:     clk,
		logger:    NewServiceLogger(logger, LogConfig{Service: "learning-service", Component: "progress"}),
	}
}

func (s *progressService) MarkLessonComplete(ctx context.Context, learnerID, courseID, lessonID string, progress int) (err error) {
	op := s.logger.WithOperation(ctx, "mark_lesson_complete", learnerID)
	defer func() { op.LogResult(lessonID, "lesson", err) }()

	now := s.clock.Now().UTC()
	inserted, err := s.repo.Progress().MarkComplete(ctx, nil, &models.LessonProgress{
		CourseID:    courseID,
		LessonID:    lessonID,
		LearnerID:   learnerID,
		CompletedAt: now,
	})
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	event := events.NewLearningEvent(events.EventLessonCompleted, learnerID, courseID, events.LessonCompletedEvent{
		LessonID:    lessonID,
		Progress:    progress,
		CompletedAt: now,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		// progress is already stored; a lost event is not worth failing for
		s.logger.Logger().WarnContext(ctx, "Failed to publish lesson completion", "lesson_id", lessonID, "error", err)
	}
	return nil
}

func (s *progressService) CompletedLessons(ctx context.Context, learnerID, courseID string) ([]string, error) {
	ids, err := s.repo.Progress().ListCompleted(ctx, nil, courseID, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return ids, nil
}

func (s *progressService) GetProgress(ctx context.Context, learnerID, courseID string) (*ProgressResponse, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.CompletedLessons(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}

	// ids of lessons removed from the course no longer count
	valid := completed[:0]
	for _, id := range completed {
		if _, _, _, ok := course.FindLesson(id); ok {
			valid = append(valid, id)
		}
	}

	resp := &ProgressResponse{
		CourseID:         courseID,
		LearnerID:        learnerID,
		CompletedLessons: valid,
		TotalLessons:     course.LessonCount(),
		Percent:          assessment.Percentage(len(valid), course.LessonCount()),
	}

	best, err := s.repo.Result().GetBestExamResult(ctx, nil, courseID, learnerID)
	switch {
	case err == nil:
		resp.BestExam = best
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load exam results: %w", err)
	}
	return resp, nil
}
