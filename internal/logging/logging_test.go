package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		level      string
		logLevel   slog.Level
		wantOutput bool
		wantJSON   bool
	}{
		{"text info", "text", "info", slog.LevelInfo, true, false},
		{"json info", "json", "info", slog.LevelInfo, true, true},
		{"debug logs debug", "text", "debug", slog.LevelDebug, true, false},
		{"info filters debug", "text", "info", slog.LevelDebug, false, false},
		{"warn filters info", "text", "warn", slog.LevelInfo, false, false},
		{"error keeps error", "json", "error", slog.LevelError, true, true},
		{"unknown level is info", "text", "verbose", slog.LevelInfo, true, false},
		{"unknown format is text", "xml", "info", slog.LevelInfo, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(tt.format, tt.level, &buf)
			logger.Log(t.Context(), tt.logLevel, "navigate", "doc", "seoul")

			out := buf.String()
			if !tt.wantOutput {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			if !strings.Contains(out, "navigate") {
				t.Fatalf("output %q missing message", out)
			}
			if tt.wantJSON {
				var m map[string]any
				if err := json.Unmarshal([]byte(out), &m); err != nil {
					t.Fatalf("output is not JSON: %v", err)
				}
				if m["doc"] != "seoul" {
					t.Errorf("doc = %v, want seoul", m["doc"])
				}
			} else if !strings.Contains(out, "doc=seoul") {
				t.Errorf("text output %q missing attribute", out)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wikirace.log")
	logger, closer, err := OpenFile(path, "text", "info")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	logger.Info("game started", "goal", "busan")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "goal=busan") {
		t.Errorf("log file = %q", data)
	}
}
