package models

import (
	"time"

	"gorm.io/datatypes"
)

type ExamEndReason string

const (
	EndReasonManual  ExamEndReason = "manual"
	EndReasonTimeout ExamEndReason = "timeout"
)

type QuizResult struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SessionID   string         `json:"session_id" gorm:"size:36;index"`
	CourseID    string         `json:"course_id" gorm:"not null;size:64;index"`
	LessonID    string         `json:"lesson_id" gorm:"not null;size:64;index"`
	LearnerID   string         `json:"learner_id" gorm:"not null;size:255;index"`
	Correct     int            `json:"correct"`
	Total       int            `json:"total"`
	Score       int            `json:"score"` // percent
	Passed      bool           `json:"passed"`
	Answers     datatypes.JSON `json:"answers" gorm:"type:jsonb"` // map[questionID]Answer
	SubmittedAt time.Time      `json:"submitted_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

type ExamResult struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SessionID   string         `json:"session_id" gorm:"size:36;index"`
	CourseID    string         `json:"course_id" gorm:"not null;size:64;index"`
	LearnerID   string         `json:"learner_id" gorm:"not null;size:255;index"`
	Score       int            `json:"score"` // percent
	Correct     int            `json:"correct"`
	Total       int            `json:"total"`
	Passed      bool           `json:"passed"`
	EndReason   ExamEndReason  `json:"end_reason" gorm:"size:20"`
	TimeSpent   int            `json:"time_spent"` // seconds
	Answers     datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	SubmittedAt time.Time      `json:"submitted_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}

type LessonProgress struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CourseID    string    `json:"course_id" gorm:"not null;size:64;uniqueIndex:idx_progress_learner_lesson"`
	LessonID    string    `json:"lesson_id" gorm:"not null;size:64;uniqueIndex:idx_progress_learner_lesson"`
	LearnerID   string    `json:"learner_id" gorm:"not null;size:255;uniqueIndex:idx_progress_learner_lesson"`
	CompletedAt time.Time `json:"completed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
