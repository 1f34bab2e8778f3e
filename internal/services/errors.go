package services

import (
	"errors"
	"fmt"

	"github.com/openlearnai/learning-service/internal/assessment"
	apperrors "github.com/openlearnai/learning-service/internal/errors"
	"github.com/openlearnai/learning-service/internal/repositories"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Course specific errors
	ErrCourseNotFound  = errors.New("course not found")
	ErrCourseInvalid   = errors.New("course content is invalid")
	ErrImportMalformed = errors.New("import file is malformed")

	// Session specific errors
	ErrSessionNotFound     = errors.New("learning session not found")
	ErrSessionAccessDenied = errors.New("access denied to learning session")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string         `json:"rule"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	err     error
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

func (bre *BusinessRuleError) Unwrap() error {
	return bre.err
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func (pe *PermissionError) Unwrap() error {
	return ErrSessionAccessDenied
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value any) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]any) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// engineRules maps engine gate errors onto business rule names.
var engineRules = map[error]string{
	assessment.ErrNotAllAnswered:     "all_questions_answered",
	assessment.ErrAlreadySubmitted:   "quiz_single_submission",
	assessment.ErrNotSubmitted:       "quiz_review_after_submit",
	assessment.ErrExamNotStarted:     "exam_started",
	assessment.ErrExamAlreadyStarted: "exam_single_start",
	assessment.ErrExamFinished:       "exam_single_submission",
	assessment.ErrExamNotFinished:    "exam_retry_after_finish",
	assessment.ErrNotOnLastPage:      "exam_submit_last_page",
	assessment.ErrSessionClosed:      "session_open",
	assessment.ErrNotQuizLesson:      "lesson_has_quiz",
	assessment.ErrNoFinalExam:        "course_has_final_exam",
}

// engineBadInput lists engine errors caused by malformed requests.
var engineBadInput = []error{
	assessment.ErrUnknownQuestion,
	assessment.ErrInvalidAnswer,
	assessment.ErrNotMatching,
	assessment.ErrInvalidPosition,
}

// translateEngineError lifts engine errors into the service error classes.
// Errors it does not recognise are returned unchanged.
func translateEngineError(err error) error {
	if err == nil {
		return nil
	}
	for sentinel, rule := range engineRules {
		if errors.Is(err, sentinel) {
			return &BusinessRuleError{Rule: rule, Message: err.Error(), err: err}
		}
	}
	for _, sentinel := range engineBadInput {
		if errors.Is(err, sentinel) {
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
	}
	if errors.Is(err, assessment.ErrLessonNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, assessment.ErrEmptyCourse) || errors.Is(err, assessment.ErrEmptyQuestionSet) {
		return fmt.Errorf("%w: %w", ErrCourseInvalid, err)
	}
	return err
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, repositories.ErrNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrSessionAccessDenied)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrBadRequest) || errors.Is(err, ErrImportMalformed) {
		return true
	}
	var ve apperrors.ValidationErrors
	var single *apperrors.ValidationError
	return errors.As(err, &ve) || errors.As(err, &single)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	var bre *BusinessRuleError
	if errors.As(err, &bre) {
		return errors.Is(bre.err, assessment.ErrAlreadySubmitted) ||
			errors.Is(bre.err, assessment.ErrExamFinished) ||
			errors.Is(bre.err, assessment.ErrExamAlreadyStarted)
	}
	return false
}
