package logging_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"regenq/internal/config"
	"regenq/internal/logging"
)

func TestConsoleLoggerRendersComponentAndSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "regen")
	logger.Info("queued",
		logging.String(logging.FieldSlug, "pricing-app"),
		logging.String(logging.FieldField, "pricing"),
		logging.String(logging.FieldItemID, "1f2e3d4c-aaaa-bbbb"),
		logging.String(logging.FieldStatus, "new"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INFO", "regen: queued", "[pricing-app (pricing) · item 1f2e3d4c]", "status=new"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("tick", logging.Error(errors.New("boom")))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
	if !strings.Contains(string(content), "error=boom") {
		t.Fatalf("expected error attr, got %q", content)
	}
}

func TestConsoleLoggerFiltersBelowLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-warn.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logging.WarnWithContext(logger, "trigger failed", "trigger_failed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") {
		t.Fatalf("info line should be filtered: %q", content)
	}
	for _, want := range []string{"event_type=trigger_failed", "error_hint=", "impact="} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(&cfg, "regenqd")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	ctx := logging.WithRequestID(logging.WithSlug(context.Background(), "acme"), "req-1")
	logging.WithContext(ctx, logger).Info("request served")

	file, err := os.Open(filepath.Join(cfg.Paths.LogDir, "regenqd.jsonl"))
	if err != nil {
		t.Fatalf("open json log: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatal("expected a json log line")
	}
	var entry map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if entry["msg"] != "request served" || entry["slug"] != "acme" || entry["request_id"] != "req-1" {
		t.Fatalf("unexpected json entry: %v", entry)
	}
	if entry["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
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

func TestFormatSubject(t *testing.T) {
	cases := []struct {
		slug, field, itemID string
		want                string
	}{
		{want: ""},
		{slug: "acme", want: "acme"},
		{slug: "acme", field: "tags", want: "acme (tags)"},
		{slug: "acme", field: "all", itemID: "123456789abc", want: "acme (all) · item 12345678"},
		{itemID: "abc", want: "item abc"},
	}
	for _, tc := range cases {
		if got := logging.FormatSubject(tc.slug, tc.field, tc.itemID); got != tc.want {
			t.Errorf("FormatSubject(%q, %q, %q) = %q, want %q", tc.slug, tc.field, tc.itemID, got, tc.want)
		}
	}
}

func TestJSONLogRendersDurationsAsText(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "poll.jsonl")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("poll round finished", logging.Duration("elapsed", 1500*time.Millisecond))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if entry["elapsed"] != "1.5s" {
		t.Fatalf("expected duration string, got %v", entry["elapsed"])
	}
}

func TestWarnWithContextKeepsCallerHint(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "trigger failed", "trigger_failed",
		logging.String(logging.FieldErrorHint, "check trigger.url"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Count(string(content), "error_hint=") != 1 || !strings.Contains(string(content), `error_hint="check trigger.url"`) {
		t.Fatalf("expected caller hint only, got %q", content)
	}
}
