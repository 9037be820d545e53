//go:build integration

// Package integration runs the store-facing code against a real PostgreSQL
// started with testcontainers. One container serves the whole package; every
// test gets a freshly truncated schema.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/salesrecon/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// pipelineTables are emptied between tests, children first
var pipelineTables = []string{
	"city_cluster_assignments",
	"curated_orders",
	"quarantined_records",
	"canonical_orders",
	"currency_rates",
	"raw_orders_a",
	"raw_orders_b",
	"city_district_map",
	"city_translations",
	"district_translations",
}

var shared struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	dsn       string
	err       error
}

func TestMain(m *testing.M) {
	code := m.Run()
	if shared.container != nil {
		_ = shared.container.Terminate(context.Background())
	}
	os.Exit(code)
}

// startPostgres boots the container and applies the embedded migrations once
func startPostgres() (string, error) {
	shared.once.Do(func() {
		ctx := context.Background()
		c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("salesrecon_test"),
			tcpostgres.WithUsername("recon"),
			tcpostgres.WithPassword("recon"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(time.Minute)),
		)
		if err != nil {
			shared.err = fmt.Errorf("start postgres: %w", err)
			return
		}
		shared.container = c

		dsn, err := c.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			shared.err = err
			return
		}
		shared.dsn = dsn
		shared.err = migrate(dsn)
	})
	return shared.dsn, shared.err
}

func migrate(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := migration.New(db, "postgres", zap.NewNop())
	if err != nil {
		return err
	}
	return m.Up()
}

// TestDB is a connection to the migrated test schema
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
}

// NewSharedTestDB connects to the package container with empty tables.
// SQL is logged through the test logger when TEST_DB_DEBUG is set.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	dsn, err := startPostgres()
	require.NoError(t, err)

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(zaptest.NewLogger(t), level),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("TRUNCATE TABLE "+strings.Join(pipelineTables, ", ")).Error)
	return &TestDB{DB: db, SqlDB: sqlDB}
}
