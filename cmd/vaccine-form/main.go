package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/vaccine-registration/api/swagger"
	"github.com/noah-isme/vaccine-registration/internal/handler"
	internalmiddleware "github.com/noah-isme/vaccine-registration/internal/middleware"
	"github.com/noah-isme/vaccine-registration/internal/repository"
	"github.com/noah-isme/vaccine-registration/internal/service"
	"github.com/noah-isme/vaccine-registration/pkg/cache"
	"github.com/noah-isme/vaccine-registration/pkg/config"
	"github.com/noah-isme/vaccine-registration/pkg/jobs"
	"github.com/noah-isme/vaccine-registration/pkg/logger"
	corsmiddleware "github.com/noah-isme/vaccine-registration/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/vaccine-registration/pkg/middleware/requestid"
)

// @title Vaccine Registration API
// @version 1.0.0
// @description Session bound registration form with eligibility check
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	var (
		stateRepo service.FormStateRepository
		ready     handler.ReadinessCheck
	)
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close() //nolint:errcheck
		stateRepo = repository.NewRedisFormStateRepository(client, logr)
		ready = func(ctx context.Context) error { return cache.Ping(ctx, client) }
	default:
		memoryRepo := repository.NewMemoryFormStateRepository()
		purge := jobs.NewPeriodic("form-state-purge", time.Minute, func(context.Context) error {
			if removed := memoryRepo.PurgeExpired(); removed > 0 {
				logr.Debug("purged expired form states", zap.Int("removed", removed), zap.Int("remaining", memoryRepo.Len()))
			}
			return nil
		}, logr)
		purge.Start(ctx)
		defer purge.Stop()
		stateRepo = memoryRepo
	}
	logr.Info("form state store ready", zap.String("store", cfg.Session.Store))

	rules := service.NewFormValidator(validator.New(), service.FormRules{
		Location:     cfg.Form.Location(),
		MinBirthDate: cfg.Form.MinBirthDate,
	})
	registrations := service.NewRegistrationService(stateRepo, rules, metricsSvc, logr, cfg.Session.TTL)
	sessions := service.NewSessionService(service.SessionConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Issuer: cfg.Session.Issuer,
	})

	templates, err := handler.LoadTemplates()
	if err != nil {
		logr.Fatal("failed to parse templates", zap.Error(err))
	}

	r := gin.New()
	r.SetHTMLTemplate(templates)
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	session := internalmiddleware.Session(sessions, internalmiddleware.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	})
	handler.RegisterRoutes(r, cfg.APIPrefix, session, handler.Handlers{
		Page:    handler.NewFormPageHandler(registrations, cfg.APIPrefix),
		API:     handler.NewRegistrationHandler(registrations),
		Metrics: handler.NewMetricsHandler(metricsSvc, ready, logr),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
