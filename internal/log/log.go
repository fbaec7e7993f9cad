// Package log holds the process-wide zap logger. Init configures it at
// startup; until then every call falls back to a production logger.
package log

import (
	"fmt"
	"sync"

	"github.com/railstats/nsdisruptions/internal/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	base  *zap.Logger
	sugar *zap.SugaredLogger
)

// Build returns a logger tagged with the application name and version.
// Debug loggers write human-readable lines at debug level, the others
// write JSON at info level.
func Build(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]interface{}{
		"app":     constants.ApplicationName,
		"version": constants.Version,
	}
	return cfg.Build(zap.AddCallerSkip(1))
}

// Init builds the process-wide logger
func Init(debug bool) error {
	l, err := Build(debug)
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}
	Set(l)
	return nil
}

// Set replaces the process-wide logger
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

func current() (*zap.Logger, *zap.SugaredLogger) {
	mu.RLock()
	b, s := base, sugar
	mu.RUnlock()
	if b != nil {
		return b, s
	}

	l, err := Build(false)
	if err != nil {
		l = zap.NewNop()
	}
	Set(l)
	return current()
}

// GetZapLogger returns the unsugared logger, for libraries such as GORM
// that take a *zap.Logger or a std logger built from one.
func GetZapLogger() *zap.Logger {
	b, _ := current()
	return b
}

// GetSugaredLogger returns the process-wide sugared logger
func GetSugaredLogger() *zap.SugaredLogger {
	_, s := current()
	return s
}

// Named returns a child logger tagged with a component name
func Named(component string) *zap.SugaredLogger {
	return GetSugaredLogger().Named(component)
}

// Sync flushes buffered entries
func Sync() {
	_ = GetSugaredLogger().Sync()
}

func Info(args ...interface{}) {
	GetSugaredLogger().Info(args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	GetSugaredLogger().Infow(msg, keysAndValues...)
}

func Warn(args ...interface{}) {
	GetSugaredLogger().Warn(args...)
}

func Errorf(template string, args ...interface{}) {
	GetSugaredLogger().Errorf(template, args...)
}

// Fatal logs and exits the process
func Fatal(args ...interface{}) {
	GetSugaredLogger().Fatal(args...)
}

// Fatalf logs and exits the process
func Fatalf(template string, args ...interface{}) {
	GetSugaredLogger().Fatalf(template, args...)
}
