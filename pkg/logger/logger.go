// Package logger provides the process-wide leveled logger for droidpilot.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// LevelCritical marks escalation log lines that precede a human takeover.
const LevelCritical = slog.LevelError + 4

var (
	mu      sync.Mutex
	current *slog.Logger
	logFile *os.File
)

func init() {
	current = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	}))
}

// Init configures the logger with the given level, optionally teeing
// output into a log file for post-mortem diagnosis of unattended runs.
func Init(logPath string, level slog.Level) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	w := io.Writer(os.Stderr)
	noColor := false
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //#nosec G304 -- user-provided log path
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		logFile = f
		w = io.MultiWriter(os.Stderr, f)
		noColor = true
	}

	current = slog.New(tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  time.RFC3339,
		NoColor:     noColor,
		ReplaceAttr: replaceCritical,
	}))
	return nil
}

// replaceCritical renders the custom critical level with a readable name.
func replaceCritical(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
			a.Value = slog.StringValue("CRITICAL")
		}
	}
	return a
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// L returns the current logger.
func L() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// Critical logs an escalation message. Exactly one critical line is
// emitted before a HumanTakeoverError reaches the caller.
func Critical(msg string, args ...any) {
	L().Log(context.Background(), LevelCritical, msg, args...)
}
