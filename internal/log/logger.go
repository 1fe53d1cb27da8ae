// Package log wraps the zap singleton used across the service.
package log

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init builds the singleton. Idempotent: only the first call has effect.
func Init(env, level string) (*zap.Logger, error) {
	var err error
	once.Do(func() {
		instance, err = build(env, level)
	})
	return instance, err
}

// L returns the singleton, building a dev logger if Init was never called.
func L() *zap.Logger {
	if instance == nil {
		_, _ = Init("dev", "info")
	}
	return instance
}

// Sync flushes buffered entries; defer from main.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}

func build(env, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	_ = lvl.UnmarshalText([]byte(strings.ToLower(level)))

	var cfg zap.Config
	if strings.ToLower(env) == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

type ctxKey struct{}

// ToContext injects a request-scoped logger; used by middleware.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the logger from ctx, falling back to the singleton.
func From(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return L()
}
