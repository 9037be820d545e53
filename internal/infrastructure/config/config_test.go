package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"RECON_APP_ENV",
	"RECON_DATABASE_DRIVER",
	"RECON_DATABASE_PATH",
	"RECON_DATABASE_PASSWORD",
	"RECON_DATABASE_SSLMODE",
	"RECON_DATABASE_MAX_OPEN_CONNS",
	"RECON_DATABASE_MAX_IDLE_CONNS",
	"RECON_VALIDATION_SOURCE_B_REFERENTIAL_CHECKS",
	"RECON_TIERING_K",
	"RECON_TIERING_SEED",
	"RECON_STORAGE_TYPE",
	"RECON_STORAGE_S3_BUCKET",
	"RECON_LOCK_BACKEND",
	"RECON_TELEMETRY_SAMPLING_RATIO",
}

// clearEnv unsets every key the tests touch and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		}
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range envKeys {
			os.Unsetenv(k)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "salesrecon", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "salesrecon.db", cfg.Database.Path)
		assert.Equal(t, 500, cfg.Database.UpsertBatchSize)
		assert.False(t, cfg.Validation.SourceBReferentialChecks)
		assert.Equal(t, map[string]string{"RMB": "1", "USD": "7.28"}, cfg.Currency.Rates)
		assert.Equal(t, 3, cfg.Tiering.K)
		assert.Equal(t, int64(0), cfg.Tiering.Seed)
		assert.Equal(t, 10, cfg.Tiering.NInit)
		assert.Equal(t, 9, cfg.Tiering.ElbowMaxK)
		assert.Equal(t, "local", cfg.Storage.Type)
		assert.Equal(t, "memory", cfg.Lock.Backend)
		assert.Equal(t, 30*time.Minute, cfg.Lock.TTL)
		assert.Equal(t, 6, cfg.HTTP.RunRateLimit)
		assert.Equal(t, time.Minute, cfg.HTTP.RunRateWindow)
	})

	t.Run("loads values from environment variables with RECON prefix", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("RECON_DATABASE_DRIVER", "postgres")
		os.Setenv("RECON_VALIDATION_SOURCE_B_REFERENTIAL_CHECKS", "true")
		os.Setenv("RECON_TIERING_K", "4")
		os.Setenv("RECON_TIERING_SEED", "42")
		os.Setenv("RECON_LOCK_BACKEND", "redis")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.True(t, cfg.Validation.SourceBReferentialChecks)
		assert.Equal(t, 4, cfg.Tiering.K)
		assert.Equal(t, int64(42), cfg.Tiering.Seed)
		assert.Equal(t, "redis", cfg.Lock.Backend)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("RECON_DATABASE_DRIVER", "duckdb")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("RECON_DATABASE_MAX_OPEN_CONNS", "4")
		os.Setenv("RECON_DATABASE_MAX_IDLE_CONNS", "8")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("requires bucket for s3 storage", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("RECON_STORAGE_TYPE", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.s3.bucket")

		os.Setenv("RECON_STORAGE_S3_BUCKET", "recon-exports")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "recon-exports", cfg.Storage.S3.Bucket)
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("RECON_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires database.password for postgres in production", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("RECON_APP_ENV", "production")
		os.Setenv("RECON_DATABASE_DRIVER", "postgres")
		os.Setenv("RECON_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("RECON_APP_ENV", "production")
		os.Setenv("RECON_DATABASE_DRIVER", "postgres")
		os.Setenv("RECON_DATABASE_PASSWORD", "secure-password")
		os.Setenv("RECON_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("sqlite needs no credentials in production", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("RECON_APP_ENV", "production")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("sqlite returns the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", Path: "/tmp/recon.db"}
		assert.Equal(t, "/tmp/recon.db", cfg.DSN())
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
		assert.Contains(t, dsn, "sslmode=disable")
	})
}
