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
	"github.com/salesrecon/backend/internal/bootstrap"
	"github.com/salesrecon/backend/internal/infrastructure/config"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/salesrecon/backend/internal/interfaces/http/handler"
	"github.com/salesrecon/backend/internal/interfaces/http/middleware"
	"github.com/salesrecon/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting sales reconciliation API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	app, err := bootstrap.New(context.Background(), cfg, log, bootstrap.Options{
		// postgres stores are migrated by "salesrecon-pipeline migrate up"
		AutoMigrate:  cfg.Database.Driver == "sqlite",
		LockFallback: cfg.App.Env != "production",
	})
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	log = app.Logger
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Error("Error releasing resources", zap.Error(err))
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	runLimiter := middleware.NewRateLimiter(cfg.HTTP.RunRateLimit, cfg.HTTP.RunRateWindow)
	defer runLimiter.Close()

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSOrigins

	engineCfg := router.Config{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     app.Tracing.IsEnabled(),
			Provider:    app.Tracing.Provider(),
		},
		CORS:       cors,
		RunLimiter: runLimiter,
	}
	if cfg.Metrics.Enabled {
		engineCfg.Registry = app.Metrics.Registry()
		engineCfg.Metrics = app.Metrics.Handler()
	}

	engine, err := router.NewEngine(engineCfg, router.Handlers{
		System: handler.NewSystemHandler(cfg.App.Name, version, app.Database),
		Orders: handler.NewOrderHandler(app.Scope, handler.PageConfig{
			DefaultSize: cfg.HTTP.DefaultLimit,
			MaxSize:     cfg.HTTP.MaxLimit,
		}),
		Tiers:    handler.NewTierHandler(app.Tiering),
		Reports:  handler.NewReportHandler(app.Reports),
		Pipeline: handler.NewPipelineHandler(app.Runner),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
