package observability

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	ctxKeyInvocationID ctxKey = "invocation_id"
	ctxKeyCommand      ctxKey = "command"
)

// basic global logger, JSON to stdout.
var logger atomic.Pointer[zap.Logger]

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// New builds a production JSON logger at the given level ("debug", "info", ...).
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// SetLogger replaces the global logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

func Logger() *zap.Logger {
	return logger.Load()
}

// WithFields returns a logger with additional fields.
func WithFields(fields ...zap.Field) *zap.Logger {
	return Logger().With(fields...)
}

// WithInvocation stores the invocation id and command name in the context.
func WithInvocation(ctx context.Context, invocationID, command string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyInvocationID, invocationID)
	return context.WithValue(ctx, ctxKeyCommand, command)
}

// LoggerFromContext adds invocation_id and command if present.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	l := Logger()
	if id, _ := ctx.Value(ctxKeyInvocationID).(string); id != "" {
		l = l.With(zap.String("invocation_id", id))
	}
	if cmd, _ := ctx.Value(ctxKeyCommand).(string); cmd != "" {
		l = l.With(zap.String("command", cmd))
	}
	return l
}
