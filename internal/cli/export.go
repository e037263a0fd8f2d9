package cli

import (
	"github.com/spf13/cobra"

	"github.com/latebit/wikirace/internal/leaderboard"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the leaderboard with full replays as JSON",
		Long:  "Export every leaderboard entry with its replay. Entries whose history is corrupt are exported without a replay.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

type exportedEntry struct {
	leaderboard.Entry
	Steps             []leaderboard.Step `json:"steps,omitempty"`
	Forks             int                `json:"forks"`
	AvgSecondsPerMove float64            `json:"avg_seconds_per_move"`
	Grade             string             `json:"grade,omitempty"`
	Efficiency        string             `json:"efficiency,omitempty"`
	Error             string             `json:"error,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) {
	s := openBoard(loadConfig())
	defer s.Close()

	entries, err := s.List(cmd.Context(), 0)
	if err != nil {
		exitErr("export", err)
	}

	out := []exportedEntry{}
	for _, e := range entries {
		x := exportedEntry{Entry: e}
		log, err := leaderboard.Replay(e)
		if err != nil {
			x.Error = err.Error()
		} else {
			x.Steps = log.Steps
			x.Forks = log.Forks
			x.AvgSecondsPerMove = log.AvgSecondsPerMove
			x.Grade = log.Grade
			x.Efficiency = log.Efficiency
		}
		out = append(out, x)
	}
	printJSON(cmd, out)
}
