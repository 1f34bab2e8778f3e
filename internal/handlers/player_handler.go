package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlearnai/learning-service/internal/services"
	"github.com/openlearnai/learning-service/internal/utils"
	"github.com/openlearnai/learning-service/internal/validator"
)

type PageRequest struct {
	Direction string `json:"direction" validate:"required,oneof=next prev"`
}

// PlayerHandler exposes learning sessions: one course player per learner.
type PlayerHandler struct {
	BaseHandler
	playerService services.PlayerService
	validator     *validator.Validator
}

func NewPlayerHandler(
	playerService services.PlayerService,
	validator *validator.Validator,
	logger utils.Logger,
) *PlayerHandler {
	return &PlayerHandler{
		BaseHandler:   NewBaseHandler(logger),
		playerService: playerService,
		validator:     validator,
	}
}

// OpenSession starts or resumes the caller's session on a course
// @Summary Open learning session
// @Tags sessions
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/sessions [post]
func (h *PlayerHandler) OpenSession(c *gin.Context) {
	courseID := ParseStringIDParam(c, "id")
	if courseID == "" {
		return
	}
	learnerID, ok := LearnerID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Opening session", "course_id", courseID)

	session, err := h.playerService.Open(c.Request.Context(), learnerID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns the current player view
// @Summary Get learning session
// @Tags sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{session_id} [get]
func (h *PlayerHandler) GetSession(c *gin.Context) {
	sessionID, learnerID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	session, err := h.playerService.Get(c.Request.Context(), learnerID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CloseSession ends a session, cancelling any running exam
// @Summary Close learning session
// @Tags sessions
// @Param session_id path string true "Session ID"
// @Success 204
// @Router /sessions/{session_id} [delete]
func (h *PlayerHandler) CloseSession(c *gin.Context) {
	sessionID, learnerID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Closing session", "session_id", sessionID)

	if err := h.playerService.Close(c.Request.Context(), learnerID, sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Navigate moves through the course
// @Summary Navigate course
// @Tags sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param request body services.NavigateRequest true "Navigation"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{session_id}/navigate [post]
func (h *PlayerHandler) Navigate(c *gin.Context) {
	sessionID, learnerID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var req services.NavigateRequest
	if !h.bindJSON(c, h.validator, &req) {
		return
	}

	h.LogRequest(c, "Navigating", "session_id", sessionID, "action", req.Action)

	session, err := h.playerService.Navigate(c.Request.Context(), learnerID, sessionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// OpenLesson jumps to a lesson by id
// @Router /sessions/{session_id}/lessons/{lesson_id}/open [post]
func (h *PlayerHandler) OpenLesson(c *gin.Context) {
	sessionID, lessonID, learnerID, ok := h.lessonParams(c)
	if !ok {
		return
	}

	session, err := h.playerService.OpenLesson(c.Request.Context(), learnerID, sessionID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CompleteLesson marks a content lesson as read
// @Router /sessions/{session_id}/lessons/{lesson_id}/complete [post]
func (h *PlayerHandler) CompleteLesson(c *gin.Context) {
	sessionID, lessonID, learnerID, ok := h.lessonParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Completing lesson", "session_id", sessionID, "lesson_id", lessonID)

	session, err := h.playerService.MarkLessonComplete(c.Request.Context(), learnerID, sessionID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ===== QUIZ =====

// AnswerQuiz records an answer for a lesson quiz
// @Router /sessions/{session_id}/lessons/{lesson_id}/quiz/answers [put]
func (h *PlayerHandler) AnswerQuiz(c *gin.Context) {
	sessionID, lessonID, learnerID, ok := h.lessonParams(c)
	if !ok {
		return
	}

	var req services.AnswerRequest
	if !h.bindJSON(c, h.validator, &req) {
		return
	}

	view, err := h.playerService.AnswerQuiz(c.Request.Context(), learnerID, sessionID, lessonID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitQuiz grades a lesson quiz
// @Router /sessions/{session_id}/lessons/{lesson_id}/quiz/submit [post]
func (h *PlayerHandler) SubmitQuiz(c *gin.Context) {
	sessionID, lessonID, learnerID, ok := h.lessonParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting quiz", "session_id", sessionID, "lesson_id", lessonID)

	view, err := h.playerService.SubmitQuiz(c.Request.Context(), learnerID, sessionID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ResetQuiz clears a lesson quiz for another attempt
// @Router /sessions/{session_id}/lessons/{lesson_id}/quiz/reset [post]
func (h *PlayerHandler) ResetQuiz(c *gin.Context) {
	sessionID, lessonID, learnerID, ok := h.lessonParams(c)
	if !ok {
		return
	}

	view, err := h.playerService.ResetQuiz(c.Request.Context(), learnerID, sessionID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ===== FINAL EXAM =====

// StartExam starts the timed final exam
// @Router /sessions/{session_id}/exam/start [post]
func (h *PlayerHandler) StartExam(c *gin.Context) {
	sessionID, learnerID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting exam", "session_id", sessionID)

	view, err := h.playerService.StartExam(c.Request.Context(), learnerID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// AnswerExam records an exam answer
// @Router /sessions/{session_id}/exam/answers [put]
func (h *PlayerHandler) AnswerExam(c *gin.Context) {
	sessionID, learnerID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var req services.AnswerRequest
	if !h.bindJSON(c, h.validator, &req) {
		return
	}

	view, err := h.playerService.AnswerExam(c.Request.Context(), learnerID, sessionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ExamPage moves between exam pages
// @Router /sessions/{session_id}/exam/page [post]
func (h *PlayerHandler) ExamPage(c *gin.Context) {
	sessionID, learnerID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var req PageRequest
	if !h.bindJSON(c, h.validator, &req) {
		return
	}

	view, err := h.playerService.ExamPage(c.Request.Context(), learnerID, sessionID, req.Direction)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitExam grades the final exam
// @Router /sessions/{session_id}/exam/submit [post]
func (h *PlayerHandler) SubmitExam(c *gin.Context) {
	sessionID, learnerID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting exam", "session_id", sessionID)

	view, err := h.playerService.SubmitExam(c.Request.Context(), learnerID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// RetryExam resets a finished exam to the intro screen
// @Router /sessions/{session_id}/exam/retry [post]
func (h *PlayerHandler) RetryExam(c *gin.Context) {
	sessionID, learnerID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	view, err := h.playerService.RetryExam(c.Request.Context(), learnerID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *PlayerHandler) sessionParams(c *gin.Context) (sessionID, learnerID string, ok bool) {
	if sessionID = ParseStringIDParam(c, "session_id"); sessionID == "" {
		return "", "", false
	}
	if learnerID, ok = LearnerID(c); !ok {
		return "", "", false
	}
	return sessionID, learnerID, true
}

func (h *PlayerHandler) lessonParams(c *gin.Context) (sessionID, lessonID, learnerID string, ok bool) {
	if sessionID, learnerID, ok = h.sessionParams(c); !ok {
		return "", "", "", false
	}
	if lessonID = ParseStringIDParam(c, "lesson_id"); lessonID == "" {
		return "", "", "", false
	}
	return sessionID, lessonID, learnerID, true
}
