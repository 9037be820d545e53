package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowThreshold = 200 * time.Millisecond
	// upsert batches render every row into the statement
	defaultMaxSQLLength = 2048
)

// GormLogger adapts zap to gorm's logger. Entries carry the run, stage and
// request fields of the statement's context.
type GormLogger struct {
	log            *zap.Logger
	logLevel       gormlogger.LogLevel
	slowThreshold  time.Duration
	maxSQLLength   int
	ignoreNotFound bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement logs at warn;
// zero disables slow statement detection.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slowThreshold = d }
}

// WithIgnoreRecordNotFoundError controls whether lookups that miss are logged
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) { l.ignoreNotFound = ignore }
}

// WithMaxSQLLength truncates logged statements to n bytes; zero keeps them whole
func WithMaxSQLLength(n int) GormLoggerOption {
	return func(l *GormLogger) { l.maxSQLLength = n }
}

func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		log:            log.Named("gorm"),
		logLevel:       level,
		slowThreshold:  defaultSlowThreshold,
		maxSQLLength:   defaultMaxSQLLength,
		ignoreNotFound: true,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Info {
		l.log.Info(fmt.Sprintf(msg, data...), Fields(ctx)...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, data...), Fields(ctx)...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Error {
		l.log.Error(fmt.Sprintf(msg, data...), Fields(ctx)...)
	}
}

// Trace logs executed statements at debug, slow ones at warn and failed
// ones at error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	failed := err != nil && l.logLevel >= gormlogger.Error &&
		!(l.ignoreNotFound && errors.Is(err, gormlogger.ErrRecordNotFound))
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold && l.logLevel >= gormlogger.Warn
	if !failed && !slow && l.logLevel < gormlogger.Info {
		return
	}

	sql, rows := fc()
	fields := append(Fields(ctx),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	)
	fields = append(fields, l.sqlFields(sql)...)

	switch {
	case failed:
		l.log.Error("SQL Error", append(fields, zap.Error(err))...)
	case slow:
		l.log.Warn("Slow SQL", append(fields, zap.Duration("threshold", l.slowThreshold))...)
	default:
		l.log.Debug("SQL Query", fields...)
	}
}

func (l *GormLogger) sqlFields(sql string) []zap.Field {
	if l.maxSQLLength <= 0 || len(sql) <= l.maxSQLLength {
		return []zap.Field{zap.String("sql", sql)}
	}
	return []zap.Field{
		zap.String("sql", sql[:l.maxSQLLength]+"..."),
		zap.Int("sql_bytes", len(sql)),
	}
}

// MapGormLogLevel maps a config level name to gorm's; unknown names are warn
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
