package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/latebit/wikirace/internal/leaderboard"
)

func init() {
	cmd := &cobra.Command{
		Use:   "replay <rank>",
		Short: "Replay a leaderboard entry step by step",
		Args:  cobra.ExactArgs(1),
		Run:   runReplay,
	}

	cmd.Flags().Bool("markdown", false, "Print a markdown summary instead of JSON")

	RootCmd.AddCommand(cmd)
}

func runReplay(cmd *cobra.Command, args []string) {
	markdown, _ := cmd.Flags().GetBool("markdown")
	rank, err := strconv.Atoi(args[0])
	if err != nil {
		exitErr("replay", fmt.Errorf("rank must be a number: %q", args[0]))
	}

	s := openBoard(loadConfig())
	defer s.Close()

	e, err := s.Get(cmd.Context(), rank)
	if err != nil {
		exitErr("replay", err)
	}
	log, err := leaderboard.Replay(*e)
	if err != nil {
		exitErr("replay", err)
	}

	if markdown {
		fmt.Fprint(cmd.OutOrStdout(), log.Markdown())
		return
	}
	printJSON(cmd, log)
}
