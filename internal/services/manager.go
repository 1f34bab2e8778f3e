package services

import (
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/openlearnai/learning-service/internal/assessment"
	"github.com/openlearnai/learning-service/internal/cache"
	"github.com/openlearnai/learning-service/internal/events"
	"github.com/openlearnai/learning-service/internal/repositories"
	"github.com/openlearnai/learning-service/internal/validator"
)

// ServiceManager exposes every service to the transport layer.
type ServiceManager interface {
	Course() CourseService
	Player() PlayerService
	Progress() ProgressService
	Result() ResultService
}

type ManagerConfig struct {
	Repo      repositories.Repository
	Cache     cache.CacheService // optional
	CacheTTL  time.Duration
	Publisher events.EventPublisher
	Validator *validator.Validator
	Clock     clock.WithTicker // optional
	Logger    *slog.Logger
}

type serviceManager struct {
	course   CourseService
	player   PlayerService
	progress ProgressService
	result   ResultService
}

func NewServiceManager(cfg ManagerConfig, engineOpts ...assessment.Option) ServiceManager {
	course := NewCourseService(cfg.Repo, cfg.Cache, cfg.CacheTTL, cfg.Validator, cfg.Logger)
	progress := NewProgressService(cfg.Repo, course, cfg.Publisher, cfg.Clock, cfg.Logger)

	return &serviceManager{
		course:   course,
		progress: progress,
		result:   NewResultService(cfg.Repo, course, cfg.Logger),
		player: NewPlayerService(PlayerServiceDeps{
			Repo:      cfg.Repo,
			Courses:   course,
			Progress:  progress,
			Publisher: cfg.Publisher,
			Clock:     cfg.Clock,
			Logger:    cfg.Logger,
		}, engineOpts...),
	}
}

func (m *serviceManager) Course() CourseService     { return m.course }
func (m *serviceManager) Player() PlayerService     { return m.player }
func (m *serviceManager) Progress() ProgressService { return m.progress }
func (m *serviceManager) Result() ResultService     { return m.result }
