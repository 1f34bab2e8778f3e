package assessment

import "errors"

var (
	// Content errors
	ErrEmptyQuestionSet = errors.New("question set is empty")
	ErrUnknownQuestion  = errors.New("question is not part of this quiz")
	ErrInvalidAnswer    = errors.New("answer does not fit the question")
	ErrNotMatching      = errors.New("question is not a matching question")

	// Quiz block errors
	ErrNotAllAnswered   = errors.New("not all questions are answered")
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	ErrNotSubmitted     = errors.New("quiz has not been submitted")

	// Exam session errors
	ErrExamNotStarted     = errors.New("exam has not started")
	ErrExamAlreadyStarted = errors.New("exam already in progress")
	ErrExamFinished       = errors.New("exam already finished")
	ErrExamNotFinished    = errors.New("exam is not finished")
	ErrNotOnLastPage      = errors.New("exam can only be submitted from the last page")
	ErrSessionClosed      = errors.New("session is closed")

	// Player errors
	ErrInvalidPosition = errors.New("lesson position out of range")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrNotQuizLesson   = errors.New("lesson has no quiz")
	ErrNoFinalExam     = errors.New("course has no final exam")
	ErrEmptyCourse     = errors.New("course has no lessons")
)
