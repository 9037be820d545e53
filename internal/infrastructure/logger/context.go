package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	scopeKey
)

// scope is the correlation state of one pipeline run or HTTP request
type scope struct {
	runID     string
	stage     string
	requestID string
}

func scopeFrom(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey).(scope)
	return s
}

func (s scope) fields() []zap.Field {
	var fields []zap.Field
	if s.runID != "" {
		fields = append(fields, zap.String("run_id", s.runID))
	}
	if s.stage != "" {
		fields = append(fields, zap.String("stage", s.stage))
	}
	if s.requestID != "" {
		fields = append(fields, zap.String("request_id", s.requestID))
	}
	return fields
}

// WithContext attaches log to ctx
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the attached logger or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// WithRunID starts a run scope. The returned logger carries run_id and is
// also attached to the returned context.
func WithRunID(ctx context.Context, log *zap.Logger, runID string) (context.Context, *zap.Logger) {
	s := scopeFrom(ctx)
	s.runID = runID
	log = log.With(zap.String("run_id", runID))
	return WithContext(context.WithValue(ctx, scopeKey, s), log), log
}

// WithStage narrows the scope to one pipeline stage
func WithStage(ctx context.Context, stage string) context.Context {
	s := scopeFrom(ctx)
	s.stage = stage
	ctx = context.WithValue(ctx, scopeKey, s)
	return WithContext(ctx, FromContext(ctx).With(zap.String("stage", stage)))
}

// WithRequestID tags the scope with an HTTP request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	s := scopeFrom(ctx)
	s.requestID = requestID
	return context.WithValue(ctx, scopeKey, s)
}

func GetRunID(ctx context.Context) string     { return scopeFrom(ctx).runID }
func GetStage(ctx context.Context) string     { return scopeFrom(ctx).stage }
func GetRequestID(ctx context.Context) string { return scopeFrom(ctx).requestID }

// Fields returns the correlation fields of ctx, including the active span.
// Loggers that do not come from FromContext, such as the GORM adapter, use
// it to tag their entries.
func Fields(ctx context.Context) []zap.Field {
	return append(scopeFrom(ctx).fields(), spanFields(ctx)...)
}

func spanFields(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// L returns the context logger with trace_id and span_id of the active span.
//
//	logger.L(ctx).Info("Silver stage completed", zap.Int("upserted", n))
func L(ctx context.Context) *zap.Logger {
	log := FromContext(ctx)
	if fields := spanFields(ctx); fields != nil {
		return log.With(fields...)
	}
	return log
}
