// Package logger provides structured logging for all briefhub components.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used throughout briefhub.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
}

// ZapLogger implements the Logger interface using zap.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// New creates a production logger with ISO8601 timestamps.
func New() *ZapLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.NewProductionConfig()
	config.EncoderConfig = encoderConfig

	logger, _ := config.Build(zap.AddCallerSkip(1))

	return &ZapLogger{logger: logger.Sugar()}
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}

// Debug logs a debug message with key/value pairs.
func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

// Info logs an info message with key/value pairs.
func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infow(msg, keysAndValues...)
}

// Warn logs a warning message with key/value pairs.
func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnw(msg, keysAndValues...)
}

// Error logs an error message with key/value pairs.
func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, keysAndValues...)
}

// Sync flushes buffered log entries. Call before process exit.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// With returns a child logger with the given key/value pairs attached.
func (l *ZapLogger) With(keysAndValues ...interface{}) Logger {
	return &ZapLogger{logger: l.logger.With(keysAndValues...)}
}

// Redact masks a user-identifying value for log output.
// Only the first two characters are kept.
func Redact(s string) string {
	if len(s) <= 2 {
		return "***"
	}
	return s[:2] + "***"
}
