package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LogrusLogger wraps a logrus logger to implement the Logger interface.
type LogrusLogger struct {
	logger *logrus.Logger
	entry  *logrus.Entry
}

// NewLogrusLogger creates a new LogrusLogger writing JSON entries to stdout.
// An unparseable level falls back to info.
func NewLogrusLogger(level string) *LogrusLogger {
	return newLogrusLogger(level, os.Stdout)
}

// NewLogrusLoggerWithOutput creates a LogrusLogger writing to the given writer.
// The guidance daemon uses this to keep logs off stdout when stdout carries
// overlay commands for the UI process.
func NewLogrusLoggerWithOutput(level string, out io.Writer) *LogrusLogger {
	return newLogrusLogger(level, out)
}

func newLogrusLogger(level string, out io.Writer) *LogrusLogger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(out)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	return &LogrusLogger{
		logger: logger,
		entry:  logrus.NewEntry(logger),
	}
}

// Debug logs a debug-level message.
func (l *LogrusLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	if fields != nil {
		l.entry.WithFields(fields).Debug(msg)
	} else {
		l.entry.Debug(msg)
	}
}

// Info logs an info-level message.
func (l *LogrusLogger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	if fields != nil {
		l.entry.WithFields(fields).Info(msg)
	} else {
		l.entry.Info(msg)
	}
}

// Warn logs a warning-level message.
func (l *LogrusLogger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if fields != nil {
		l.entry.WithFields(fields).Warn(msg)
	} else {
		l.entry.Warn(msg)
	}
}

// Error logs an error-level message.
func (l *LogrusLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	if fields != nil {
		l.entry.WithFields(fields).Error(msg)
	} else {
		l.entry.Error(msg)
	}
}

// With returns a new logger with the given fields added.
func (l *LogrusLogger) With(fields map[string]interface{}) Logger {
	return &LogrusLogger{
		logger: l.logger,
		entry:  l.entry.WithFields(fields),
	}
}
