// Package bootstrap builds the dependency graph shared by the server and the
// pipeline CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/salesrecon/backend/internal/application/enrichment"
	appingest "github.com/salesrecon/backend/internal/application/ingest"
	"github.com/salesrecon/backend/internal/application/pipeline"
	"github.com/salesrecon/backend/internal/application/reconcile"
	appreport "github.com/salesrecon/backend/internal/application/report"
	apptiering "github.com/salesrecon/backend/internal/application/tiering"
	"github.com/salesrecon/backend/internal/application/validation"
	"github.com/salesrecon/backend/internal/infrastructure/config"
	"github.com/salesrecon/backend/internal/infrastructure/lock"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/salesrecon/backend/internal/infrastructure/persistence"
	"github.com/salesrecon/backend/internal/infrastructure/storage"
	"github.com/salesrecon/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Options tune how much of the graph is built
type Options struct {
	// AutoMigrate creates the pipeline tables from the gorm models
	AutoMigrate bool
	// LockFallback lets an unreachable redis degrade to a process-local lock
	LockFallback bool
	// SkipTiering leaves the tier stage out of pipeline runs
	SkipTiering bool
}

// App holds every long-lived collaborator of a process
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Database *persistence.Database
	Scope    *persistence.GormTransactionScope
	Blobs    storage.BlobStore
	RunLock  lock.RunLock
	Tracing  *telemetry.TracerProvider
	Logs     *telemetry.LogExport
	Metrics  *telemetry.PipelineMetrics
	Ingest   *appingest.Service
	Tiering  *apptiering.Service
	Reports  *appreport.ReportService
	Runner   *pipeline.Runner
}

// New opens the store and wires the stage services. On error everything
// opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (app *App, err error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	app = &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			if cerr := app.Close(context.WithoutCancel(ctx)); cerr != nil {
				log.Warn("Failed to release partially built app", zap.Error(cerr))
			}
			app = nil
		}
	}()

	app.Tracing, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return app, fmt.Errorf("init tracing: %w", err)
	}
	app.Logs, err = telemetry.NewLogExport(ctx, cfg.Telemetry)
	if err != nil {
		return app, fmt.Errorf("init log export: %w", err)
	}
	log = app.Logs.Attach(log, log.Level())
	app.Logger = log

	app.Database, err = persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		return app, err
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem(cfg.Database.Driver),
	}, app.Tracing.Provider(), log)
	if err = plugin.Register(app.Database.DB); err != nil {
		return app, fmt.Errorf("register db tracing: %w", err)
	}

	if opts.AutoMigrate {
		if err = persistence.AutoMigrate(app.Database.DB); err != nil {
			return app, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("Schema migrated from models")
	}

	app.Blobs, err = storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		return app, fmt.Errorf("init storage: %w", err)
	}

	app.RunLock, err = lock.NewFactory(cfg.Redis,
		lock.WithLogger(log),
		lock.WithInMemoryFallback(opts.LockFallback),
	).Create(cfg.Lock.Backend)
	if err != nil {
		return app, err
	}

	app.Scope = persistence.NewGormTransactionScope(app.Database.DB, cfg.Database.UpsertBatchSize)
	app.Metrics = telemetry.NewPipelineMetrics()
	app.Ingest = appingest.NewService(app.Scope, app.Blobs)
	app.Tiering = apptiering.NewService(app.Scope, app.Blobs, TieringOptions(cfg.Tiering))
	app.Reports = appreport.NewReportService(persistence.NewGormReportRepository(app.Database.DB))
	app.Runner = pipeline.NewRunner(
		app.Scope,
		app.RunLock,
		reconcile.NewService(app.Scope, ValidationOptions(cfg.Validation)),
		enrichment.NewService(app.Scope),
		app.Tiering,
		pipeline.Options{
			LockKey:         cfg.Lock.Key,
			LockTTL:         cfg.Lock.TTL,
			Rates:           cfg.Currency.Rates,
			MetricsTextfile: cfg.Metrics.TextfilePath,
			SkipTiering:     opts.SkipTiering,
		},
		pipeline.WithMetrics(app.Metrics),
		pipeline.WithTracer(app.Tracing.Tracer(telemetry.TracerName)),
	)
	return app, nil
}

// ValidationOptions keeps the per-source policies and applies the configured
// referential switch
func ValidationOptions(cfg config.ValidationConfig) validation.Options {
	opts := validation.DefaultOptions()
	opts.SourceBReferentialChecks = cfg.SourceBReferentialChecks
	return opts
}

// TieringOptions maps the tiering config. A zero seed leaves clustering
// unseeded.
func TieringOptions(cfg config.TieringConfig) apptiering.Options {
	opts := apptiering.Options{
		K:         cfg.K,
		NInit:     cfg.NInit,
		MaxIter:   cfg.MaxIter,
		ElbowMaxK: cfg.ElbowMaxK,
		ExportKey: cfg.ExportKey,
	}
	if cfg.Seed != 0 {
		seed := uint64(cfg.Seed)
		opts.Seed = &seed
	}
	return opts
}

// ReferenceKeys returns the configured translation file keys
func ReferenceKeys(cfg config.ReferenceConfig) appingest.ReferenceKeys {
	return appingest.ReferenceKeys{CityFile: cfg.CityFile, DistrictFile: cfg.DistrictFile}
}

func dbSystem(driver string) string {
	if driver == "postgres" {
		return "postgresql"
	}
	return driver
}

// Close releases the lock backend, the store, the tracer and the log
// export in reverse order of construction
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.RunLock != nil {
		if err := a.RunLock.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close run lock: %w", err))
		}
	}
	if a.Database != nil {
		if err := a.Database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if a.Tracing != nil {
		if err := a.Tracing.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Logs != nil {
		if err := a.Logs.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
