// Package pipeline runs the silver, gold and tier stages as one locked run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salesrecon/backend/internal/application/enrichment"
	"github.com/salesrecon/backend/internal/application/reconcile"
	"github.com/salesrecon/backend/internal/application/scope"
	"github.com/salesrecon/backend/internal/application/tiering"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/domain/reference"
	"github.com/salesrecon/backend/internal/domain/shared"
	"github.com/salesrecon/backend/internal/infrastructure/lock"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/salesrecon/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultLockKey is used when Options.LockKey is empty
const DefaultLockKey = "salesrecon:pipeline:run"

// Options configures a Runner
type Options struct {
	LockKey string
	LockTTL time.Duration
	// Rates maps currency codes to RMB multipliers, written before the
	// gold stage reads them
	Rates map[string]string
	// MetricsTextfile, when set, receives the registry after every run
	MetricsTextfile string
	SkipTiering     bool
}

// Summary reports one pipeline run
type Summary struct {
	RunID       string             `json:"run_id"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	RatesSeeded int                `json:"rates_seeded"`
	Silver      *reconcile.Result  `json:"silver"`
	Gold        *enrichment.Result `json:"gold"`
	Tier        *tiering.Result    `json:"tier,omitempty"`
}

// Runner executes the stages in order under a run lock
type Runner struct {
	txScope scope.TransactionScope
	runLock lock.RunLock
	silver  *reconcile.Service
	gold    *enrichment.Service
	tier    *tiering.Service
	metrics *telemetry.PipelineMetrics
	tracer  trace.Tracer
	opts    Options
	now     func() time.Time
}

// RunnerOption configures optional collaborators
type RunnerOption func(*Runner)

// WithMetrics records run and stage metrics on m
func WithMetrics(m *telemetry.PipelineMetrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracer overrides the tracer taken from the global provider
func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) {
		r.tracer = t
	}
}

// NewRunner wires the stage services. tier may be nil when opts.SkipTiering
// is set.
func NewRunner(
	txScope scope.TransactionScope,
	runLock lock.RunLock,
	silver *reconcile.Service,
	gold *enrichment.Service,
	tier *tiering.Service,
	opts Options,
	options ...RunnerOption,
) *Runner {
	if opts.LockKey == "" {
		opts.LockKey = DefaultLockKey
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	r := &Runner{
		txScope: txScope,
		runLock: runLock,
		silver:  silver,
		gold:    gold,
		tier:    tier,
		opts:    opts,
		now:     time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = telemetry.NewPipelineMetrics()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(telemetry.TracerName)
	}
	return r
}

// Metrics returns the collectors the runner records on
func (r *Runner) Metrics() *telemetry.PipelineMetrics {
	return r.metrics
}

// Run executes one full pipeline run. It returns shared.ErrRunInProgress
// when another run holds the lock.
func (r *Runner) Run(ctx context.Context) (summary *Summary, err error) {
	runID := uuid.NewString()
	ctx, log := logger.WithRunID(ctx, logger.FromContext(ctx), runID)
	ctx, span := r.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attribute.String("pipeline.run_id", runID)))
	defer span.End()

	acquired, err := r.runLock.Acquire(ctx, r.opts.LockKey, runID, r.opts.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		log.Warn("Pipeline run skipped, lock is held", zap.String("lock_key", r.opts.LockKey))
		return nil, shared.ErrRunInProgress
	}
	defer func() {
		if relErr := r.runLock.Release(context.WithoutCancel(ctx), r.opts.LockKey, runID); relErr != nil {
			log.Warn("Failed to release run lock", zap.Error(relErr))
		}
	}()

	summary = &Summary{RunID: runID, StartedAt: r.now()}
	log.Info("Pipeline run started")
	defer func() {
		finished := r.now()
		r.metrics.ObserveRun(err, finished)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("Pipeline run failed", zap.Error(err))
		} else {
			summary.FinishedAt = finished
			log.Info("Pipeline run completed", zap.Duration("duration", finished.Sub(summary.StartedAt)))
		}
		if r.opts.MetricsTextfile != "" {
			if werr := r.metrics.WriteTextfile(r.opts.MetricsTextfile); werr != nil {
				log.Warn("Failed to write metrics textfile", zap.Error(werr))
			}
		}
	}()

	if summary.RatesSeeded, err = r.seedRates(ctx, summary.StartedAt); err != nil {
		return nil, err
	}

	if err = r.stage(ctx, telemetry.StageSilver, func(ctx context.Context) error {
		res, err := r.silver.Run(ctx, runID)
		if err != nil {
			return err
		}
		r.metrics.ObserveValidation(string(order.SourceA), res.ReadA, res.ForwardedA, res.QuarantinedA)
		r.metrics.ObserveValidation(string(order.SourceB), res.ReadB, res.ForwardedB, res.QuarantinedB)
		r.metrics.ObserveUpsert("canonical_orders", res.Upserted)
		summary.Silver = res
		return nil
	}); err != nil {
		return nil, err
	}

	if err = r.stage(ctx, telemetry.StageGold, func(ctx context.Context) error {
		res, err := r.gold.Run(ctx)
		if err != nil {
			return err
		}
		r.metrics.ObserveUpsert("curated_orders", res.Upserted)
		summary.Gold = res
		return nil
	}); err != nil {
		return nil, err
	}

	if r.opts.SkipTiering || r.tier == nil {
		return summary, nil
	}
	if err = r.stage(ctx, telemetry.StageTier, func(ctx context.Context) error {
		res, err := r.tier.Run(ctx)
		if err != nil {
			return err
		}
		r.metrics.ObserveTiering(res.K, res.Inertia)
		r.metrics.ObserveUpsert("city_cluster_assignments", res.Cities)
		summary.Tier = res
		return nil
	}); err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *Runner) seedRates(ctx context.Context, day time.Time) (int, error) {
	if len(r.opts.Rates) == 0 {
		return 0, nil
	}
	rates, err := reference.SeedRates(r.opts.Rates, day)
	if err != nil {
		return 0, fmt.Errorf("parse currency rates: %w", err)
	}
	var n int
	err = r.txScope.Execute(ctx, func(repos scope.Repositories) error {
		n, err = repos.Reference().UpsertCurrencyRates(ctx, rates)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("seed currency rates: %w", err)
	}
	r.metrics.ObserveUpsert("currency_rates", n)
	return n, nil
}

// stage runs fn inside a span with the stage name on its logger
func (r *Runner) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx = logger.WithStage(ctx, name)
	ctx, span := r.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	r.metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s stage: %w", name, err)
	}
	return nil
}
