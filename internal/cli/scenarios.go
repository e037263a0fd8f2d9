package cli

import (
	"github.com/spf13/cobra"

	"github.com/latebit/wikirace/internal/wiki"
)

type scenarioInfo struct {
	Number     int             `json:"number"`
	Start      string          `json:"start"`
	StartTitle string          `json:"start_title"`
	Goal       string          `json:"goal"`
	GoalTitle  string          `json:"goal_title"`
	Difficulty wiki.Difficulty `json:"difficulty"`
	Par        int             `json:"par"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the scenarios of the pack",
		Run:   runScenarios,
	}

	cmd.Flags().String("difficulty", "", "Filter by difficulty: easy, normal or hard")

	RootCmd.AddCommand(cmd)
}

func runScenarios(cmd *cobra.Command, args []string) {
	raw, _ := cmd.Flags().GetString("difficulty")
	d, err := wiki.ParseDifficulty(raw)
	if err != nil {
		exitErr("scenarios", err)
	}

	p := openPack(cmd.Context(), loadConfig())

	out := []scenarioInfo{}
	for i, s := range p.Scenarios {
		if d != wiki.DifficultyAny && s.Difficulty != d {
			continue
		}
		start, _ := p.Document(s.Start)
		goal, _ := p.Document(s.Goal)
		out = append(out, scenarioInfo{
			Number:     i + 1,
			Start:      s.Start,
			StartTitle: start.Title,
			Goal:       s.Goal,
			GoalTitle:  goal.Title,
			Difficulty: s.Difficulty,
			Par:        p.Par(s),
		})
	}
	printJSON(cmd, out)
}
