package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/openlearnai/learning-service/internal/cache"
	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
	"github.com/openlearnai/learning-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	cacheTTL  time.Duration
	validator *validator.Validator
	logger    *ServiceLogger
}

// NewCourseService builds the course catalogue. cache may be nil, in which
// case every read goes to the database.
func NewCourseService(repo repositories.Repository, cacheSvc cache.CacheService, cacheTTL time.Duration, validator *validator.Validator, logger *slog.Logger) CourseService {
	return &courseService{
		repo:      repo,
		cache:     cacheSvc,
		cacheTTL:  cacheTTL,
		validator: validator,
		logger:    NewServiceLogger(logger, LogConfig{Service: "learning-service", Component: "course"}),
	}
}

func (s *courseService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if s.cache != nil {
		var cached models.Course
		err := s.cache.Get(ctx, cache.CourseKey(courseID), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Logger().WarnContext(ctx, "Course cache unavailable", "course_id", courseID, "error", err)
		}
	}

	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
		}
		return nil, fmt.Errorf("failed to load course %s: %w", courseID, err)
	}

	// Stored content is re-checked so a bad row never reaches a learner.
	if err := s.validator.ValidateCourse(course); err != nil {
		s.logger.Logger().ErrorContext(ctx, "Stored course failed validation", "course_id", courseID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCourseInvalid, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.CourseKey(courseID), course, s.cacheTTL); err != nil {
			s.logger.Logger().WarnContext(ctx, "Failed to cache course", "course_id", courseID, "error", err)
		}
	}
	return course, nil
}

func (s *courseService) ListCourses(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	resp := &CourseListResponse{
		Courses: make([]CourseSummary, 0, len(courses)),
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}
	for _, c := range courses {
		resp.Courses = append(resp.Courses, CourseSummary{
			ID:           c.ID,
			Title:        c.Title,
			Description:  c.Description,
			Instructor:   c.Instructor,
			Level:        c.Level,
			HasFinalExam: c.FinalExam != nil,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return resp, nil
}

func (s *courseService) SaveCourse(ctx context.Context, course *models.Course) (err error) {
	op := s.logger.WithOperation(ctx, "save_course", "")
	defer func() { op.LogResult(course.ID, "course", err) }()

	if err = s.validator.ValidateCourse(course); err != nil {
		return err
	}
	if err = s.repo.Course().Upsert(ctx, nil, course); err != nil {
		return err
	}
	s.invalidate(ctx, course.ID)
	return nil
}

func (s *courseService) ImportQuestions(ctx context.Context, courseID, lessonID string, r io.Reader) (summary *ImportSummary, err error) {
	op := s.logger.WithOperation(ctx, "import_questions", "")
	defer func() { op.LogResult(courseID+"/"+lessonID, "lesson", err) }()

	questions, parseErrs := parseQuestionSheet(r)
	if len(parseErrs) > 0 {
		return nil, parseErrs
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions found", ErrImportMalformed)
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		course, err := s.repo.Course().GetByID(ctx, tx, courseID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
			}
			return err
		}

		lesson, _, _, ok := course.FindLesson(lessonID)
		if !ok {
			return fmt.Errorf("%w: lesson %s", ErrNotFound, lessonID)
		}
		if lesson.Kind == models.LessonContent {
			return NewBusinessRuleError("lesson_has_quiz", "questions can only be imported into quiz or assessment lessons",
				map[string]any{"lesson_id": lessonID, "kind": lesson.Kind})
		}
		if lesson.Quiz == nil {
			lesson.Quiz = &models.Quiz{Title: lesson.Title}
		}
		lesson.Quiz.Questions = append(lesson.Quiz.Questions, questions...)

		if err := s.validator.ValidateCourse(course); err != nil {
			return err
		}
		if err := s.repo.Course().Update(ctx, tx, course); err != nil {
			return err
		}

		summary = &ImportSummary{
			CourseID: courseID,
			LessonID: lessonID,
			Imported: len(questions),
			Total:    len(lesson.Quiz.Questions),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, courseID)
	return summary, nil
}

func (s *courseService) invalidate(ctx context.Context, courseID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.CourseKey(courseID)); err != nil {
		s.logger.Logger().WarnContext(ctx, "Failed to invalidate course cache", "course_id", courseID, "error", err)
	}
}
