package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "PRINTLINK_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks PRINTLINK_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	zapLevel, err := parseLevel(level)
	if err != nil {
		return err
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built

	return nil
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", level)
	}
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Silent until Initialize is called so library use stays quiet
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogCampaign logs a discovery campaign lifecycle event
// (started, locked, exhausted, invalidated).
func LogCampaign(event string, fields ...zap.Field) {
	Info("Discovery campaign",
		append([]zap.Field{zap.String("event", event)}, fields...)...,
	)
}

// LogProbeResult logs the outcome of one probe. Failures are expected while
// scanning so they stay at debug level.
func LogProbeResult(addr string, err error, elapsed time.Duration) {
	if err != nil {
		Debug("Probe failed",
			zap.String("addr", addr),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}
	Debug("Probe answered",
		zap.String("addr", addr),
		zap.Duration("elapsed", elapsed),
	)
}

// LogRoutedRequest logs a request that was delegated to a transport
func LogRoutedRequest(transport, method, path string, statusCode int, elapsed time.Duration, err error) {
	fields := []zap.Field{
		zap.String("transport", transport),
		zap.String("method", method),
		zap.String("path", path),
		zap.Duration("elapsed", elapsed),
	}

	if err != nil {
		Warn("Routed request failed", append(fields, zap.Error(err))...)
		return
	}

	Debug("Routed request completed", append(fields, zap.Int("status_code", statusCode))...)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
