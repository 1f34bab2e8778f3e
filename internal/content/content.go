// Package content ships the bundled course catalogue and loads it into the
// course store.
package content

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openlearnai/learning-service/internal/models"
)

//go:embed data/courses.json
var bundled embed.FS

// Saver stores one validated course.
type Saver interface {
	SaveCourse(ctx context.Context, course *models.Course) error
}

// Courses decodes the bundled catalogue.
func Courses() ([]*models.Course, error) {
	raw, err := bundled.ReadFile("data/courses.json")
	if err != nil {
		return nil, err
	}
	var courses []*models.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, fmt.Errorf("decode bundled courses: %w", err)
	}
	return courses, nil
}

// Seed stores every bundled course, replacing earlier versions. It stops at
// the first course that fails validation.
func Seed(ctx context.Context, saver Saver, logger *slog.Logger) error {
	courses, err := Courses()
	if err != nil {
		return err
	}
	for _, c := range courses {
		if err := saver.SaveCourse(ctx, c); err != nil {
			return fmt.Errorf("seed course %s: %w", c.ID, err)
		}
		logger.InfoContext(ctx, "Seeded course", "course_id", c.ID, "lessons", c.LessonCount())
	}
	return nil
}
