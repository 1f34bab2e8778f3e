package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LessonKind string

const (
	LessonContent    LessonKind = "content"
	LessonQuiz       LessonKind = "quiz"
	LessonAssessment LessonKind = "assessment"
)

// Quiz is an ordered question list; order is display, grading and page order.
type Quiz struct {
	Title        string     `json:"title"`
	Questions    []Question `json:"questions" validate:"required,min=1,dive"`
	PassingScore int        `json:"passing_score,omitempty" validate:"min=0,max=100"` // module assessments only
}

// ExamDefinition is the timed final exam of a course.
type ExamDefinition struct {
	Title           string     `json:"title" validate:"required,max=200"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes" validate:"min=0,max=300"`
	PassingScore    int        `json:"passing_score" validate:"min=0,max=100"`
	TimeWarning     int        `json:"time_warning,omitempty" validate:"min=0"` // seconds before the end
	Questions       []Question `json:"questions" validate:"required,min=1,dive"`
}

func (e ExamDefinition) DurationSeconds() int {
	return e.DurationMinutes * 60
}

type Lesson struct {
	ID              string     `json:"id" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	Kind            LessonKind `json:"kind" validate:"required,lesson_kind"`
	Content         string     `json:"content,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Quiz            *Quiz      `json:"quiz,omitempty" validate:"required_unless=Kind content"`
}

type Module struct {
	ID      string   `json:"id" validate:"required"`
	Title   string   `json:"title" validate:"required"`
	Lessons []Lesson `json:"lessons" validate:"required,min=1,dive"`
}

type Course struct {
	ID          string                      `json:"id" gorm:"primaryKey;size:64" validate:"required,max=64"`
	Title       string                      `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description string                      `json:"description" gorm:"type:text"`
	Instructor  string                      `json:"instructor" gorm:"size:200"`
	Level       string                      `json:"level" gorm:"size:50"`
	Modules     datatypes.JSONSlice[Module] `json:"modules" gorm:"type:jsonb" validate:"required,min=1,dive"`
	FinalExam   *ExamDefinition             `json:"final_exam,omitempty" gorm:"serializer:json;type:jsonb" validate:"omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Course) TableName() string {
	return "courses"
}

// LessonCount is the total number of lessons across all modules.
func (c *Course) LessonCount() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}

// FindLesson locates a lesson by id and returns its module and lesson index.
func (c *Course) FindLesson(lessonID string) (*Lesson, int, int, bool) {
	for mi := range c.Modules {
		for li := range c.Modules[mi].Lessons {
			if c.Modules[mi].Lessons[li].ID == lessonID {
				return &c.Modules[mi].Lessons[li], mi, li, true
			}
		}
	}
	return nil, 0, 0, false
}
