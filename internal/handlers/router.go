package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlearnai/learning-service/internal/metrics"
	"github.com/openlearnai/learning-service/internal/services"
	"github.com/openlearnai/learning-service/internal/utils"
	"github.com/openlearnai/learning-service/internal/validator"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerManager struct {
	courseHandler *CourseHandler
	playerHandler *PlayerHandler
	resultHandler *ResultHandler
	playerService services.PlayerService
	logger        utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		courseHandler: NewCourseHandler(serviceManager.Course(), serviceManager.Progress(), logger),
		playerHandler: NewPlayerHandler(serviceManager.Player(), validator, logger),
		resultHandler: NewResultHandler(serviceManager.Result(), logger),
		playerService: serviceManager.Player(),
		logger:        logger,
	}
}

// NewRouter builds the gin engine with the shared middleware chain and every
// route registered.
func (hm *HandlerManager) NewRouter(auth gin.HandlerFunc, db Pinger) *gin.Engine {
	router := gin.New()
	router.Use(
		utils.RequestID(),
		utils.LoggerMiddleware(hm.logger),
		utils.ContextLogger(hm.logger),
		metrics.MetricsMiddleware(),
		gin.Recovery(),
	)
	hm.SetupRoutes(router, auth, db)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc, db Pinger) {
	router.GET("/health", hm.HealthCheck(db))
	router.GET("/metrics", metrics.PrometheusHandler())

	v1 := router.Group("/api/v1")
	v1.Use(auth)
	{
		courses := v1.Group("/courses")
		instructor := hm.courseHandler.RequireInstructor
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.PUT("/:id", instructor("course", "update"), hm.courseHandler.SaveCourse)
			courses.GET("/:id/progress", hm.courseHandler.GetProgress)
			courses.POST("/:id/lessons/:lesson_id/questions/import", instructor("course", "import_questions"), hm.courseHandler.ImportQuestions)

			courses.POST("/:id/sessions", hm.playerHandler.OpenSession)

			// Results. Learners only ever see their own rows.
			courses.GET("/:id/results/exams", hm.resultHandler.ListExamResults)
			courses.GET("/:id/results/quizzes", hm.resultHandler.ListQuizResults)
			courses.GET("/:id/results/stats", instructor("results", "view_stats"), hm.resultHandler.GetExamStats)
			courses.GET("/:id/results/export", instructor("results", "export"), hm.resultHandler.ExportExamResults)
		}

		sessions := v1.Group("/sessions/:session_id")
		{
			sessions.GET("", hm.playerHandler.GetSession)
			sessions.DELETE("", hm.playerHandler.CloseSession)
			sessions.POST("/navigate", hm.playerHandler.Navigate)

			sessions.POST("/lessons/:lesson_id/open", hm.playerHandler.OpenLesson)
			sessions.POST("/lessons/:lesson_id/complete", hm.playerHandler.CompleteLesson)
			sessions.PUT("/lessons/:lesson_id/quiz/answers", hm.playerHandler.AnswerQuiz)
			sessions.POST("/lessons/:lesson_id/quiz/submit", hm.playerHandler.SubmitQuiz)
			sessions.POST("/lessons/:lesson_id/quiz/reset", hm.playerHandler.ResetQuiz)

			sessions.POST("/exam/start", hm.playerHandler.StartExam)
			sessions.PUT("/exam/answers", hm.playerHandler.AnswerExam)
			sessions.POST("/exam/page", hm.playerHandler.ExamPage)
			sessions.POST("/exam/submit", hm.playerHandler.SubmitExam)
			sessions.POST("/exam/retry", hm.playerHandler.RetryExam)
		}
	}
}

// HealthCheck reports database reachability and the live session count.
func (hm *HandlerManager) HealthCheck(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				hm.logger.Warn("Health check failed", "error", err)
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":          status,
			"service":         "learning-service",
			"active_sessions": hm.playerService.ActiveSessions(),
		})
	}
}
