package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("WIKIRACE_DATA_DIR", "")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, ".wikirace"); cfg.DataDir != want {
		t.Errorf("data dir: got %q, want %q", cfg.DataDir, want)
	}
	if cfg.PackDir != "" {
		t.Errorf("pack dir: got %q, want empty", cfg.PackDir)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log: got %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.NavDelay != 300*time.Millisecond {
		t.Errorf("nav delay: got %v, want 300ms", cfg.NavDelay)
	}
	if cfg.MCPRate != 10 {
		t.Errorf("mcp rate: got %d, want 10", cfg.MCPRate)
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("WIKIRACE_DATA_DIR", "/var/lib/wikirace")
	t.Setenv("WIKIRACE_PACK", "/srv/pack")
	t.Setenv("WIKIRACE_LOG_LEVEL", "debug")
	t.Setenv("WIKIRACE_LOG_FORMAT", "json")
	t.Setenv("WIKIRACE_NAV_DELAY_MS", "0")
	t.Setenv("WIKIRACE_MCP_RATE", "0")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "/var/lib/wikirace" {
		t.Errorf("data dir: got %q", cfg.DataDir)
	}
	if cfg.PackDir != "/srv/pack" {
		t.Errorf("pack dir: got %q", cfg.PackDir)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("log: got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.NavDelay != 0 {
		t.Errorf("nav delay: got %v, want 0", cfg.NavDelay)
	}
	if cfg.MCPRate != 0 {
		t.Errorf("mcp rate: got %d, want 0", cfg.MCPRate)
	}
	if got := cfg.LeaderboardPath(); got != "/var/lib/wikirace/leaderboard.db" {
		t.Errorf("leaderboard path: got %q", got)
	}
	if got := cfg.SettingsPath(); got != "/var/lib/wikirace/settings.toml" {
		t.Errorf("settings path: got %q", got)
	}
	if got := cfg.LogPath(); got != "/var/lib/wikirace/wikirace.log" {
		t.Errorf("log path: got %q", got)
	}
}

func TestNew_InvalidDelay(t *testing.T) {
	t.Setenv("WIKIRACE_DATA_DIR", t.TempDir())

	t.Setenv("WIKIRACE_NAV_DELAY_MS", "soon")
	cfg, _ := New()
	if cfg.NavDelay != 300*time.Millisecond {
		t.Errorf("unparseable delay: got %v, want default", cfg.NavDelay)
	}

	t.Setenv("WIKIRACE_NAV_DELAY_MS", "-50")
	cfg, _ = New()
	if cfg.NavDelay != 0 {
		t.Errorf("negative delay: got %v, want 0", cfg.NavDelay)
	}
}
