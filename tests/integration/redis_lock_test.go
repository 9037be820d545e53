//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/salesrecon/backend/internal/infrastructure/config"
	"github.com/salesrecon/backend/internal/infrastructure/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis runs a throwaway Redis for one test
func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return config.RedisConfig{Host: host, Port: port.Int()}
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	l, err := lock.NewRedisLock(startRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	ok, err := l.Acquire(ctx, "pipeline", "run-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "pipeline", "run-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held by run-1")

	// only the holder's token releases the key
	require.NoError(t, l.Release(ctx, "pipeline", "run-2"))
	ok, err = l.Acquire(ctx, "pipeline", "run-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "foreign release is ignored")

	require.NoError(t, l.Release(ctx, "pipeline", "run-1"))
	ok, err = l.Acquire(ctx, "pipeline", "run-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// releasing a key nobody holds is not an error
	require.NoError(t, l.Release(ctx, "other", "run-1"))
}

func TestRedisLock_Expiry(t *testing.T) {
	ctx := context.Background()
	l, err := lock.NewRedisLock(startRedis(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	ok, err := l.Acquire(ctx, "pipeline", "run-1", 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		ok, err := l.Acquire(ctx, "pipeline", "run-2", time.Minute)
		return err == nil && ok
	}, 5*time.Second, 50*time.Millisecond)
}

func TestLockFactory_Redis(t *testing.T) {
	l, err := lock.NewFactory(startRedis(t)).Create("redis")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	_, isRedis := l.(*lock.RedisLock)
	assert.True(t, isRedis)
}
