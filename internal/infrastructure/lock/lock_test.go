package lock

import (
	"context"
	"testing"
	"time"

	"github.com/salesrecon/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryLock_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLock()

	ok, err := l.Acquire(ctx, "run", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "run", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held by a")

	// b cannot release a's lease
	require.NoError(t, l.Release(ctx, "run", "b"))
	ok, _ = l.Acquire(ctx, "run", "b", time.Minute)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "run", "a"))
	ok, err = l.Acquire(ctx, "run", "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLock_ReentrantForOwner(t *testing.T) {
	l := NewMemoryLock()
	ok, _ := l.Acquire(context.Background(), "run", "a", time.Minute)
	require.True(t, ok)
	ok, _ = l.Acquire(context.Background(), "run", "a", time.Minute)
	assert.True(t, ok)
}

func TestMemoryLock_Expiry(t *testing.T) {
	l := NewMemoryLock()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Acquire(context.Background(), "run", "a", time.Minute)
	require.True(t, ok)

	now = now.Add(59 * time.Second)
	ok, _ = l.Acquire(context.Background(), "run", "b", time.Minute)
	assert.False(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = l.Acquire(context.Background(), "run", "b", time.Minute)
	assert.True(t, ok, "expired lease is taken over")
}

func TestMemoryLock_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLock()
	ok1, _ := l.Acquire(context.Background(), "k1", "a", time.Minute)
	ok2, _ := l.Acquire(context.Background(), "k2", "b", time.Minute)
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestFactory_Create(t *testing.T) {
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("memory by default", func(t *testing.T) {
		l, err := NewFactory(unreachable).Create("")
		require.NoError(t, err)
		assert.IsType(t, &MemoryLock{}, l)
	})

	t.Run("redis without fallback fails", func(t *testing.T) {
		_, err := NewFactory(unreachable).Create("redis")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis run lock")
	})

	t.Run("redis with fallback uses memory", func(t *testing.T) {
		l, err := NewFactory(unreachable, WithLogger(zap.NewNop()), WithInMemoryFallback(true)).Create("redis")
		require.NoError(t, err)
		assert.IsType(t, &MemoryLock{}, l)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewFactory(unreachable).Create("etcd")
		require.Error(t, err)
	})
}
