package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_LogMode(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	gormLog := NewGormLogger(zap.New(core), gormlogger.Info)

	newLogger := gormLog.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	newGormLog, ok := newLogger.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, newGormLog.logLevel)
}

func TestGormLogger_TraceCarriesRunFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gormLog := NewGormLogger(zap.New(core), gormlogger.Info)

	ctx, _ := WithRunID(context.Background(), zap.NewNop(), "run-7")
	ctx = WithStage(ctx, "enrich")

	gormLog.Trace(ctx, time.Now(), func() (string, int64) {
		return `INSERT INTO "curated_orders"`, 2
	}, nil)

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "SQL Query", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-7", fields["run_id"])
	assert.Equal(t, "enrich", fields["stage"])
	assert.Equal(t, int64(2), fields["rows"])
}

func TestGormLogger_TraceErrors(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gormLog := NewGormLogger(zap.New(core), gormlogger.Error)

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 0
	}, gormlogger.ErrRecordNotFound)
	assert.Empty(t, recorded.All())

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 0
	}, errors.New("database is locked"))
	require.Len(t, recorded.All(), 1)
	assert.Equal(t, zapcore.ErrorLevel, recorded.All()[0].Level)
}

func TestGormLogger_SlowAndTruncated(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gormLog := NewGormLogger(zap.New(core), gormlogger.Warn,
		WithSlowThreshold(time.Millisecond),
		WithMaxSQLLength(16),
	)

	stmt := `INSERT INTO "canonical_orders" ("order_id") VALUES ('A-1'),('A-2')`
	gormLog.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return stmt, 2
	}, nil)

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Slow SQL", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, `INSERT INTO "can...`, fields["sql"])
	assert.Equal(t, int64(len(stmt)), fields["sql_bytes"])
	assert.Equal(t, time.Millisecond, fields["threshold"])
}

func TestGormLogger_QuietBelowInfo(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gormLog := NewGormLogger(zap.New(core), gormlogger.Warn)

	called := false
	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		called = true
		return "SELECT 1", 1
	}, nil)

	assert.False(t, called, "statement is not rendered when nothing is logged")
	assert.Empty(t, recorded.All())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
