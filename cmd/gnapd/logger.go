package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// slogLogger adapts log/slog output to the glog contract the service
// packages consume.
type slogLogger struct {
	base *slog.Logger
}

func newLogger(level string, name string) *slogLogger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	})
	return &slogLogger{base: slog.New(handler).With("app", name)}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *slogLogger) Trace(msg string, args ...any) { l.base.Debug(msg, args...) }
func (l *slogLogger) Debug(msg string, args ...any) { l.base.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.base.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.base.Error(msg, args...) }

func (l *slogLogger) Fatal(msg string, args ...any) {
	l.base.Error(msg, args...)
	os.Exit(1)
}

func (l *slogLogger) WithContext(context.Context) glog.Logger { return l }

var _ glog.Logger = (*slogLogger)(nil)
