package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.SugaredLogger
	mu           sync.RWMutex
)

// Init builds the global logger. Output is always JSON; "production" raises
// the level to info and enables sampling.
func Init(appEnv string) error {
	var config zap.Config

	if appEnv == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Encoding = "json"

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	globalLogger = logger.Sugar().With("service", "synq")
	mu.Unlock()
	return nil
}

// SetLogger replaces the global logger, mostly for tests that want zaptest
// or an observer core.
func SetLogger(l *zap.SugaredLogger) {
	mu.Lock()
	globalLogger = l
	mu.Unlock()
}

// GetLogger returns the global SugaredLogger, falling back to a no-op
// logger when Init was never called.
func GetLogger() *zap.SugaredLogger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}

// Close flushes any buffered logs
func Close() error {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

func Info(message string, fields ...interface{}) {
	GetLogger().Infow(message, fields...)
}

func Debug(message string, fields ...interface{}) {
	GetLogger().Debugw(message, fields...)
}

func Warn(message string, fields ...interface{}) {
	GetLogger().Warnw(message, fields...)
}

func Error(message string, fields ...interface{}) {
	GetLogger().Errorw(message, fields...)
}

// Fatal logs and exits
func Fatal(message string, fields ...interface{}) {
	GetLogger().Fatalw(message, fields...)
	os.Exit(1)
}

// WithRequest creates a logger carrying the request's correlation fields
func WithRequest(requestID string, userID string, endpoint string) *zap.SugaredLogger {
	return GetLogger().With(
		"request_id", requestID,
		"user_id", userID,
		"endpoint", endpoint,
	)
}
