package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openlearnai/learning-service/internal/repositories"
	"github.com/openlearnai/learning-service/internal/services"
	"github.com/openlearnai/learning-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultHandler struct {
	BaseHandler
	resultService services.ResultService
}

func NewResultHandler(resultService services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   NewBaseHandler(logger),
		resultService: resultService,
	}
}

// ListExamResults lists graded final exams of a course
// @Summary List exam results
// @Tags results
// @Produce json
// @Param id path string true "Course ID"
// @Param learner_id query string false "Learner ID"
// @Param passed_only query bool false "Only passing results"
// @Success 200 {object} ListResponse
// @Router /courses/{id}/results/exams [get]
func (h *ResultHandler) ListExamResults(c *gin.Context) {
	courseID := ParseStringIDParam(c, "id")
	if courseID == "" {
		return
	}

	filters := parseResultFilters(c)
	results, total, err := h.resultService.ListExamResults(c.Request.Context(), courseID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: results, Total: total, Limit: filters.Limit, Offset: filters.Offset})
}

// ListQuizResults lists graded lesson quizzes of a course
// @Router /courses/{id}/results/quizzes [get]
func (h *ResultHandler) ListQuizResults(c *gin.Context) {
	courseID := ParseStringIDParam(c, "id")
	if courseID == "" {
		return
	}

	filters := parseResultFilters(c)
	results, total, err := h.resultService.ListQuizResults(c.Request.Context(), courseID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: results, Total: total, Limit: filters.Limit, Offset: filters.Offset})
}

// GetExamStats aggregates final exam results
// @Router /courses/{id}/results/stats [get]
func (h *ResultHandler) GetExamStats(c *gin.Context) {
	courseID := ParseStringIDParam(c, "id")
	if courseID == "" {
		return
	}

	stats, err := h.resultService.ExamStats(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportExamResults downloads every exam result as an xlsx workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /courses/{id}/results/export [get]
func (h *ResultHandler) ExportExamResults(c *gin.Context) {
	courseID := ParseStringIDParam(c, "id")
	if courseID == "" {
		return
	}

	h.LogRequest(c, "Exporting exam results", "course_id", courseID)

	// Buffered so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.resultService.ExportExamResults(c.Request.Context(), courseID, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+courseID+`-exam-results.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// parseResultFilters reads paging and filters from the query. Callers without
// an instructor role are pinned to their own results.
func parseResultFilters(c *gin.Context) repositories.ResultFilters {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}

	learnerID := c.Query("learner_id")
	if !callerRole(c).CanManageCourses() {
		learnerID = c.GetString(learnerIDKey)
	}

	passedOnly, _ := strconv.ParseBool(c.Query("passed_only"))
	return repositories.ResultFilters{
		LearnerID:  learnerID,
		PassedOnly: passedOnly,
		Limit:      size,
		Offset:     (page - 1) * size,
	}
}
