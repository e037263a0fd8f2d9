// Package cli implements the wikirace CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/latebit/wikirace/internal/config"
	"github.com/latebit/wikirace/internal/leaderboard"
	"github.com/latebit/wikirace/internal/logging"
	"github.com/latebit/wikirace/internal/wiki"
)

var (
	packDir string
	dataDir string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "wikirace",
	Short: "Race from one document to another by following links",
	Long: "Inspect the document pack, the leaderboard and player settings. " +
		"Play with wikirace-tui, or let an agent play through wikirace-mcp.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&packDir, "pack", "p", "", "Document pack directory (default: $WIKIRACE_PACK or the built-in pack)")
	RootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Data directory (default: $WIKIRACE_DATA_DIR or ~/.wikirace)")
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() *config.Config {
	cfg, err := config.New()
	if err != nil && dataDir == "" {
		exitErr("load config", err)
	}
	if packDir != "" {
		cfg.PackDir = packDir
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
}

func openPack(ctx context.Context, cfg *config.Config) *wiki.Pack {
	p, err := wiki.Open(ctx, cfg.PackDir)
	if err != nil {
		exitErr("load pack", err)
	}
	return p
}

func openBoard(cfg *config.Config) *leaderboard.SQLiteStore {
	s, err := leaderboard.NewSQLiteStore(cfg.LeaderboardPath())
	if err != nil {
		exitErr("open leaderboard", err)
	}
	return s
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
