package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventQuizCompleted   EventType = "quiz.completed"
	EventLessonCompleted EventType = "lesson.completed"

	EventExamStarted     EventType = "exam.started"
	EventExamSubmitted   EventType = "exam.submitted"
	EventExamTimeWarning EventType = "exam.time_warning"
	EventExamAbandoned   EventType = "exam.abandoned"
)

const (
	eventSource  = "learning-service"
	eventVersion = "1.0"
)

// LearningEvent is the envelope of every event the service emits.
type LearningEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	LearnerID string                 `json:"learner_id"`
	CourseID  string                 `json:"course_id"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type QuizCompletedEvent struct {
	SessionID string `json:"session_id"`
	LessonID  string `json:"lesson_id"`
	Correct   int    `json:"correct"`
	Total     int    `json:"total"`
	Score     int    `json:"score"` // percent
	Passed    bool   `json:"passed"`
}

type LessonCompletedEvent struct {
	LessonID    string    `json:"lesson_id"`
	Progress    int       `json:"progress"` // percent of the course
	CompletedAt time.Time `json:"completed_at"`
}

type ExamStartedEvent struct {
	SessionID       string    `json:"session_id"`
	ExamTitle       string    `json:"exam_title"`
	DurationSeconds int       `json:"duration_seconds"`
	TotalQuestions  int       `json:"total_questions"`
	StartedAt       time.Time `json:"started_at"`
}

type ExamSubmittedEvent struct {
	SessionID string `json:"session_id"`
	Score     int    `json:"score"`
	Passed    bool   `json:"passed"`
	Correct   int    `json:"correct"`
	Total     int    `json:"total"`
	Reason    string `json:"reason"` // manual or timeout
	TimeSpent int    `json:"time_spent"`
}

type ExamTimeWarningEvent struct {
	SessionID        string `json:"session_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type ExamAbandonedEvent struct {
	SessionID        string `json:"session_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// NewLearningEvent builds an envelope with a fresh id and the current time.
func NewLearningEvent(t EventType, learnerID, courseID string, data interface{}) *LearningEvent {
	return &LearningEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		LearnerID: learnerID,
		CourseID:  courseID,
		Data:      data,
	}
}
