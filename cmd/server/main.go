package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/openlearnai/learning-service/internal/cache"
	"github.com/openlearnai/learning-service/internal/config"
	"github.com/openlearnai/learning-service/internal/content"
	"github.com/openlearnai/learning-service/internal/events"
	"github.com/openlearnai/learning-service/internal/handlers"
	"github.com/openlearnai/learning-service/internal/metrics"
	"github.com/openlearnai/learning-service/internal/repositories/postgres"
	"github.com/openlearnai/learning-service/internal/services"
	"github.com/openlearnai/learning-service/internal/utils"
	"github.com/openlearnai/learning-service/internal/validator"
	"github.com/openlearnai/learning-service/pkg"
)

func main() {
	if err := run(); err != nil {
		utils.NewDefaultLogger().Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	slogger := logger.Slog()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := postgres.AutoMigrate(db); err != nil {
		return err
	}
	repo := postgres.NewRepository(db)
	defer repo.Close()

	// The cache is optional: without redis every course read hits postgres.
	var courseCache cache.CacheService
	if client, err := pkg.NewRedisClient(ctx, cfg); err != nil {
		logger.Warn("Redis unavailable, course cache disabled", "error", err)
	} else {
		defer client.Close()
		courseCache = cache.NewRedisCache(client, slogger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Warn("Failed to create event publisher, falling back to mock", "error", err)
		publisher = events.NewMockEventPublisher(slogger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	metrics.Init()
	v := validator.New()
	clk := clock.RealClock{}

	sm := services.NewServiceManager(services.ManagerConfig{
		Repo:      repo,
		Cache:     courseCache,
		CacheTTL:  cfg.CacheTTL,
		Publisher: publisher,
		Validator: v,
		Clock:     clk,
		Logger:    slogger,
	})

	if cfg.SeedContent {
		if err := content.Seed(ctx, sm.Course(), slogger); err != nil {
			return err
		}
	}

	var verifier handlers.TokenVerifier
	if cfg.Auth.Enabled() {
		verifier = handlers.NewCasdoorVerifier(cfg.Auth)
	} else if !cfg.IsProduction() {
		logger.Warn("Token verification disabled, trusting the " + handlers.DevUserHeader + " header")
	}

	hm := handlers.NewHandlerManager(sm, v, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           hm.NewRouter(handlers.AuthMiddleware(verifier, cfg.IsProduction()), repo),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Learning service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := clk.NewTicker(cfg.ReapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C():
				if n := sm.Player().ReapIdle(gctx, cfg.SessionIdleTimeout); n > 0 {
					logger.Info("Closed idle sessions", "count", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		sm.Player().CloseAll()
		return err
	})

	return g.Wait()
}
