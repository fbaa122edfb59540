package logger

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrLoggerNotFound is returned by FromContext when ctx carries no logger.
var ErrLoggerNotFound = errors.New("logger not found in context")

var (
	globalMu       sync.RWMutex
	globalLogger   *Logger
	fallbackLogger *Logger
)

type loggerKey struct{}

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	fallbackLogger = &Logger{l: l.With(zap.String("logger", "fallback"))}
}

// NewContext stores l in ctx.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext extracts the logger stored by NewContext.
func FromContext(ctx context.Context) (*Logger, error) {
	if ctx == nil {
		return nil, ErrLoggerNotFound
	}
	l, ok := ctx.Value(loggerKey{}).(*Logger)
	if !ok {
		return nil, ErrLoggerNotFound
	}
	return l, nil
}

// SetGlobalLogger replaces the process-wide logger.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Log returns the context logger, then the global one, then a warn-level fallback.
func Log(ctx context.Context) *Logger {
	if l, err := FromContext(ctx); err == nil {
		return l
	}

	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return fallbackLogger
}
