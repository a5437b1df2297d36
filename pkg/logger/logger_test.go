package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func initTestLog(t *testing.T, level slog.Level) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "droidpilot.log")
	if err := Init(path, level); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		Close()
		Init("", slog.LevelInfo)
	})
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return string(data)
}

func TestInit_TeesToFile(t *testing.T) {
	path := initTestLog(t, slog.LevelInfo)

	Info("device connected", "serial", "emulator-5554")
	out := readLog(t, path)
	if !strings.Contains(out, "device connected") || !strings.Contains(out, "emulator-5554") {
		t.Errorf("log file missing entry: %q", out)
	}
}

func TestInit_LevelFilter(t *testing.T) {
	path := initTestLog(t, slog.LevelInfo)

	Debug("noisy detail")
	Warn("worth keeping")
	out := readLog(t, path)
	if strings.Contains(out, "noisy detail") {
		t.Error("debug line must be filtered at info level")
	}
	if !strings.Contains(out, "worth keeping") {
		t.Error("warn line must pass at info level")
	}
}

func TestCritical_RendersLabel(t *testing.T) {
	path := initTestLog(t, slog.LevelInfo)

	Critical("retry exhausted", "action", "tap")
	out := readLog(t, path)
	if !strings.Contains(out, "CRITICAL") {
		t.Errorf("expected CRITICAL label, got %q", out)
	}
	if !strings.Contains(out, "retry exhausted") {
		t.Errorf("expected message, got %q", out)
	}
}

func TestInit_BadPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "nested.log"), slog.LevelInfo); err == nil {
		t.Error("expected error for unwritable log path")
	}
	Init("", slog.LevelInfo)
}
