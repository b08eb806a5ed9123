package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"walkthrough/internal/config"
	"walkthrough/internal/logging"
	"walkthrough/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "walkthrough.log")
	return logPath, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logPath, read := newFileLogger(t, "console", "info")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("clip synthesized", logging.String("path", "1700000000.wav"))

	content := read()
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", content)
	}
	if !strings.Contains(content, "INFO") || !strings.Contains(content, "clip synthesized") {
		t.Fatalf("expected level and message, got %q", content)
	}
	if !strings.Contains(content, "    - path: 1700000000.wav") {
		t.Fatalf("expected indented field, got %q", content)
	}
	if strings.Contains(content, "\x1b[") {
		t.Fatalf("file output must not be colourized, got %q", content)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	logPath, read := newFileLogger(t, "console", "debug")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("waiting for narration")

	if content := read(); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected source information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersRunSubject(t *testing.T) {
	logPath, read := newFileLogger(t, "console", "info")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "0123456789abcdef")
	ctx = services.WithState(ctx, "recording")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "run")).Info("script started")

	content := read()
	if !strings.Contains(content, "[run] Run 01234567 (recording) – script started") {
		t.Fatalf("unexpected header: %q", content)
	}
	if strings.Contains(content, "- run_id:") {
		t.Fatalf("run id should be folded into the header, got %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath, read := newFileLogger(t, "json", "info")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("recording candidates ambiguous", logging.Int("candidates", 2))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "recording candidates ambiguous" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestRunLoggerWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()

	logger, path, closeFn, err := logging.NewRunLogger(logging.NewNop(), &cfg, "9f1c2d3e-aaaa-bbbb-cccc-000000000000")
	if err != nil {
		t.Fatalf("NewRunLogger returned error: %v", err)
	}
	logger.Debug("narration queued", logging.String("text", "hallo"))
	if err := closeFn(); err != nil {
		t.Fatalf("close run log: %v", err)
	}

	if !strings.Contains(filepath.Base(path), "9f1c2d3e") {
		t.Fatalf("run log name should carry the run id prefix, got %q", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"narration queued"`) {
		t.Fatalf("expected debug entry in run log, got %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("no-op logger must not be enabled")
	}
}
