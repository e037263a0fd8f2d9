// Package config provides environment-based configuration for the wikirace
// commands.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds settings shared by every wikirace command.
type Config struct {
	DataDir   string // where the leaderboard, settings and logs live
	PackDir   string // document pack directory; empty selects the built-in pack
	LogLevel  string
	LogFormat string
	NavDelay  time.Duration // artificial delay before a navigation is applied
	MCPRate   int           // MCP tool calls allowed per second per tool (0: unlimited)
}

// New loads configuration from environment variables prefixed with
// WIKIRACE_.
func New() (*Config, error) {
	cfg := &Config{
		DataDir:   getEnv("WIKIRACE_DATA_DIR", ""),
		PackDir:   getEnv("WIKIRACE_PACK", ""),
		LogLevel:  getEnv("WIKIRACE_LOG_LEVEL", "info"),
		LogFormat: getEnv("WIKIRACE_LOG_FORMAT", "text"),
		NavDelay:  time.Duration(getEnvAsInt("WIKIRACE_NAV_DELAY_MS", 300)) * time.Millisecond,
		MCPRate:   getEnvAsInt("WIKIRACE_MCP_RATE", 10),
	}
	if cfg.NavDelay < 0 {
		cfg.NavDelay = 0
	}
	if cfg.MCPRate < 0 {
		cfg.MCPRate = 0
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, errors.New("WIKIRACE_DATA_DIR is not set and the home directory is unknown")
		}
		cfg.DataDir = filepath.Join(home, ".wikirace")
	}
	return cfg, nil
}

// LeaderboardPath is the SQLite leaderboard file.
func (c *Config) LeaderboardPath() string {
	return filepath.Join(c.DataDir, "leaderboard.db")
}

// SettingsPath is the TOML player settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.toml")
}

// LogPath is where the terminal UI writes its log.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "wikirace.log")
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
