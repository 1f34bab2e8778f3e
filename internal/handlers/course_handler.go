package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openlearnai/learning-service/internal/models"
	"github.com/openlearnai/learning-service/internal/repositories"
	"github.com/openlearnai/learning-service/internal/services"
	"github.com/openlearnai/learning-service/internal/utils"
)

const maxImportSize = 5 << 20

// CourseOutline is the learner-facing course structure. Question content and
// answer keys stay on the server; learners reach them through a session.
type CourseOutline struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Instructor  string          `json:"instructor"`
	Level       string          `json:"level"`
	Modules     []ModuleOutline `json:"modules"`
	FinalExam   *ExamOutline    `json:"final_exam,omitempty"`
}

type ModuleOutline struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Lessons []LessonOutline `json:"lessons"`
}

type LessonOutline struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Kind            models.LessonKind `json:"kind"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
	QuestionCount   int               `json:"question_count,omitempty"`
}

type ExamOutline struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	PassingScore    int    `json:"passing_score"`
	QuestionCount   int    `json:"question_count"`
}

func newCourseOutline(course *models.Course) CourseOutline {
	out := CourseOutline{
		ID:          course.ID,
		Title:       course.Title,
		Description: course.Description,
		Instructor:  course.Instructor,
		Level:       course.Level,
		Modules:     make([]ModuleOutline, 0, len(course.Modules)),
	}
	for _, m := range course.Modules {
		mo := ModuleOutline{ID: m.ID, Title: m.Title, Lessons: make([]LessonOutline, 0, len(m.Lessons))}
		for _, l := range m.Lessons {
			lo := LessonOutline{ID: l.ID, Title: l.Title, Kind: l.Kind, DurationMinutes: l.DurationMinutes}
			if l.Quiz != nil {
				lo.QuestionCount = len(l.Quiz.Questions)
			}
			mo.Lessons = append(mo.Lessons, lo)
		}
		out.Modules = append(out.Modules, mo)
	}
	if exam := course.FinalExam; exam != nil {
		out.FinalExam = &ExamOutline{
			Title:           exam.Title,
			Description:     exam.Description,
			DurationMinutes: exam.DurationMinutes,
			PassingScore:    exam.PassingScore,
			QuestionCount:   len(exam.Questions),
		}
	}
	return out
}

type CourseHandler struct {
	BaseHandler
	courseService   services.CourseService
	progressService services.ProgressService
}

func NewCourseHandler(
	courseService services.CourseService,
	progressService services.ProgressService,
	logger utils.Logger,
) *CourseHandler {
	return &CourseHandler{
		BaseHandler:     NewBaseHandler(logger),
		courseService:   courseService,
		progressService: progressService,
	}
}

// ListCourses lists the course catalogue
// @Summary List courses
// @Tags courses
// @Produce json
// @Param level query string false "Course level"
// @Param search query string false "Title search"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	h.LogRequest(c, "Listing courses")

	filters := h.parseCourseFilters(c)
	courses, err := h.courseService.ListCourses(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// GetCourse returns the outline of a course
// @Summary Get course outline
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} CourseOutline
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Getting course", "course_id", id)

	course, err := h.courseService.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCourseOutline(course))
}

// SaveCourse creates or replaces a course
// @Summary Save course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param course body models.Course true "Course content"
// @Success 200 {object} CourseOutline
// @Failure 400 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) SaveCourse(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var course models.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if course.ID == "" {
		course.ID = id
	}
	if course.ID != id {
		h.RespondWithError(c, http.StatusBadRequest, "Course id does not match the path", nil)
		return
	}

	h.LogRequest(c, "Saving course", "course_id", id)

	if err := h.courseService.SaveCourse(c.Request.Context(), &course); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCourseOutline(&course))
}

// GetProgress returns the caller's progress through a course
// @Summary Get course progress
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.ProgressResponse
// @Router /courses/{id}/progress [get]
func (h *CourseHandler) GetProgress(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	learnerID, ok := LearnerID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.GetProgress(c.Request.Context(), learnerID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ImportQuestions appends questions from an uploaded xlsx sheet to a lesson quiz
// @Summary Import lesson questions
// @Tags courses
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param lesson_id path string true "Lesson ID"
// @Param file formData file true "xlsx workbook"
// @Success 200 {object} SuccessResponse{data=services.ImportSummary}
// @Failure 400 {object} ErrorResponse
// @Router /courses/{id}/lessons/{lesson_id}/questions/import [post]
func (h *CourseHandler) ImportQuestions(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	lessonID := ParseStringIDParam(c, "lesson_id")
	if lessonID == "" {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing upload file", err)
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".xlsx") {
		h.RespondWithError(c, http.StatusBadRequest, "Only .xlsx files are supported", nil, file.Filename)
		return
	}
	if file.Size > maxImportSize {
		h.RespondWithError(c, http.StatusRequestEntityTooLarge, "Upload is too large", nil, file.Size)
		return
	}

	src, err := file.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Could not read upload", err)
		return
	}
	defer src.Close()

	h.LogRequest(c, "Importing questions", "course_id", id, "lesson_id", lessonID, "file", file.Filename)

	summary, err := h.courseService.ImportQuestions(c.Request.Context(), id, lessonID, src)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Questions imported", summary)
}

func (h *CourseHandler) parseCourseFilters(c *gin.Context) repositories.CourseFilters {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}

	return repositories.CourseFilters{
		Level:     c.Query("level"),
		Search:    strings.TrimSpace(c.Query("search")),
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return defaultValue
}
