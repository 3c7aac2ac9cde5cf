// Package logging provides structured logging for the backend: a zap logger
// that tees to console and a rotating file, with automatic redaction of
// credential-shaped values.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger and composes the pieces in this package:
// the rotating file writer, the console+file tee core, and the
// sensitive-data filter.
//
// Example:
//
//	logger, err := logging.NewLogger(true, "inkwell.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//	logger.Info("server started", zap.Int("port", 3000))
type Logger struct {
	zap           *zap.Logger
	sugar         *zap.SugaredLogger
	isDevelopment bool
	logFilePath   string
}

// NewLogger creates a Logger for the given environment.
//
// In development mode the console output is colored and human-readable at
// debug level; in production both outputs are JSON at info level. The file
// output always uses JSON and rotates via lumberjack (100MB, 5 backups,
// 30 days, compressed). LOG_LEVEL overrides the level in either mode.
func NewLogger(isDevelopment bool, logFilePath string) (*Logger, error) {
	level := InfoLevel
	if isDevelopment {
		level = DebugLevel
	}
	level = ParseLogLevel("LOG_LEVEL", level)

	core, err := NewMultiCore(level, logFilePath, isDevelopment)
	if err != nil {
		return nil, fmt.Errorf("failed to create log core: %w", err)
	}

	zapLogger := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	)

	return &Logger{
		zap:           zapLogger,
		sugar:         zapLogger.Sugar(),
		isDevelopment: isDevelopment,
		logFilePath:   logFilePath,
	}, nil
}

// NewLoggerWithCore creates a Logger around an explicit core.
// Used by tests to capture output in a buffer.
func NewLoggerWithCore(core zapcore.Core, isDevelopment bool) *Logger {
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &Logger{
		zap:           zapLogger,
		sugar:         zapLogger.Sugar(),
		isDevelopment: isDevelopment,
	}
}

// Zap returns the underlying zap.Logger for packages that take one directly.
// The returned logger does not include this wrapper's extra caller skip.
func (l *Logger) Zap() *zap.Logger {
	return l.zap.WithOptions(zap.AddCallerSkip(-1))
}

// With returns a child logger with the given fields attached.
// String field values pass through the sensitive-data filter.
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.zap.With(redactFields(fields)...)
	return &Logger{
		zap:           child,
		sugar:         child.Sugar(),
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, redactFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, redactFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, redactFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, redactFields(fields)...)
}

// Fatal logs the message and exits the process.
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, redactFields(fields)...)
}

// Sugared variants for printf-style call sites.

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes buffered log entries. Call before process exit.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// redactFields applies the sensitive-data filter to string field values and
// to field names that look like credentials.
func redactFields(fields []zap.Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		if f.Type == zapcore.StringType {
			out[i] = zap.String(f.Key, RedactField(f.Key, f.String))
			continue
		}
		out[i] = f
	}
	return out
}
