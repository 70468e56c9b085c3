package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/jengzang/measurement-map-go/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{Env: config.EnvProduction, LogLevel: "info"}

	newLogger(&buf, cfg, "1.2.3", "mapgen").Info("rendered", "points", 6)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "rendered" || entry["app"] != "mapgen" || entry["version"] != "1.2.3" {
		t.Errorf("entry = %v", entry)
	}
	if entry["points"] != float64(6) {
		t.Errorf("points = %v, want 6", entry["points"])
	}
}

func TestNewLogger_DevelopmentRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{Env: config.EnvDevelopment, LogLevel: "warn"}
	logger := newLogger(&buf, cfg, "dev", "mapgen")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}
