package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "learning_active_sessions",
			Help: "Course player sessions currently held in memory",
		},
	)

	QuizSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learning_quiz_submissions_total",
			Help: "Graded quiz and module assessment submissions",
		},
		[]string{"kind", "passed"},
	)

	ExamCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learning_exam_completions_total",
			Help: "Finished final exams by end reason",
		},
		[]string{"reason", "passed"},
	)

	ExamScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "learning_exam_score_percent",
			Help:    "Final exam scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	EventPublishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learning_event_publish_failures_total",
			Help: "Learning events that could not be published",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			ActiveSessions,
			QuizSubmissions,
			ExamCompletions,
			ExamScores,
			EventPublishFailures,
		)
	})
}

func ObserveQuiz(kind string, passed bool) {
	QuizSubmissions.WithLabelValues(kind, strconv.FormatBool(passed)).Inc()
}

func ObserveExam(reason string, passed bool, score int) {
	ExamCompletions.WithLabelValues(reason, strconv.FormatBool(passed)).Inc()
	ExamScores.Observe(float64(score))
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
