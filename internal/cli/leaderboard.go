package cli

import (
	"github.com/spf13/cobra"

	"github.com/latebit/wikirace/internal/leaderboard"
)

func init() {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		Run:   runLeaderboard,
	}

	cmd.Flags().IntP("limit", "l", leaderboard.Capacity, "Max entries")

	RootCmd.AddCommand(cmd)
}

func runLeaderboard(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s := openBoard(loadConfig())
	defer s.Close()

	entries, err := s.List(cmd.Context(), limit)
	if err != nil {
		exitErr("leaderboard", err)
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	printJSON(cmd, entries)
}
