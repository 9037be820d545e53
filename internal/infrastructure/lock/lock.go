// Package lock provides the run lock that keeps pipeline runs from
// overlapping across processes.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/salesrecon/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RunLock is a named lease with an owner token and a TTL
type RunLock interface {
	// Acquire takes the lease if it is free or expired. It reports false
	// without error when another owner holds it.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Release drops the lease if owner still holds it
	Release(ctx context.Context, key, owner string) error
	Close() error
}

// Factory creates run locks based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// a process-local lock. Default is false.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new lock factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{redisConfig: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the lock for the given backend name
func (f *Factory) Create(backend string) (RunLock, error) {
	switch backend {
	case "", "memory":
		return NewMemoryLock(), nil
	case "redis":
		l, err := NewRedisLock(f.redisConfig)
		if err == nil {
			return l, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("failed to create redis run lock: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory run lock; runs in other processes are not excluded",
			zap.Error(err),
		)
		return NewMemoryLock(), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", backend)
	}
}
