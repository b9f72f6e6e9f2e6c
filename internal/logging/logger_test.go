package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"berlin-airquality/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.3", "dashboard")

	logger.Debug("hidden")
	logger.Info("dataset loaded", "rows", 42)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	want := map[string]any{
		"msg":     "dataset loaded",
		"app":     "dashboard",
		"version": "1.2.3",
		"env":     "prod",
		"rows":    float64(42),
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestNewLogger_DevText(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.Config{AppEnv: "dev", LogLevel: slog.LevelDebug}, "dev", "ingest")

	logger.Debug("extracting archive", "archive", "ParquetFiles.zip")

	out := buf.String()
	for _, want := range []string{"extracting archive", "app=ingest", "archive=ParquetFiles.zip"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("log output to a buffer must not be colored: %q", out)
	}
}
