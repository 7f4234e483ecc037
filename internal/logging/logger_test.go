package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"climate-server/internal/config"
)

func TestNew_releaseWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}

	logger := New(&buf, cfg, "1.2.3", "climate-server")
	logger.Info("hello", "station", "USC00519281")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	for key, want := range map[string]string{
		"msg":     "hello",
		"app":     "climate-server",
		"version": "1.2.3",
		"env":     "prod",
		"station": "USC00519281",
	} {
		if got, _ := rec[key].(string); got != want {
			t.Errorf("%s = %q; want %q", key, got, want)
		}
	}
}

func TestNew_respectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{AppEnv: "prod", LogLevel: slog.LevelWarn}

	logger := New(&buf, cfg, "1.2.3", "climate-server")
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn not logged: %q", buf.String())
	}
}

func TestNew_devUsesText(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{AppEnv: "prod", LogLevel: slog.LevelDebug}

	logger := New(&buf, cfg, "dev", "climate-server")
	logger.Debug("starting")

	out := buf.String()
	if !strings.Contains(out, "starting") || !strings.Contains(out, "app=climate-server") {
		t.Fatalf("dev output = %q; want text line with app attr", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("dev output looks like JSON: %q", out)
	}
}
