package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "recon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n))
	return n == 1
}

func TestSourceDir(t *testing.T) {
	dir, err := SourceDir("postgres")
	require.NoError(t, err)
	assert.Equal(t, "sql/postgres", dir)

	dir, err = SourceDir("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sql/sqlite3", dir)

	_, err = SourceDir("duckdb")
	require.Error(t, err)
}

func TestMigrator_SQLiteUpDown(t *testing.T) {
	db := openSQLite(t)
	m, err := New(db, "sqlite", zap.NewNop())
	require.NoError(t, err)

	st, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, Status{}, st)

	require.NoError(t, m.Up())
	st, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, Status{Version: 2}, st)
	for _, table := range []string{"raw_orders_a", "raw_orders_b", "canonical_orders", "curated_orders", "quarantined_records", "city_cluster_assignments"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	// a second Up is a no-op
	require.NoError(t, m.Up())

	require.NoError(t, m.Steps(-1))
	st, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(1), st.Version)

	require.NoError(t, m.GoTo(2))
	require.NoError(t, m.Force(2))
	st, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, Status{Version: 2}, st)

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "canonical_orders"))
	assert.NoError(t, m.Close())
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(openSQLite(t), "mysql", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}
