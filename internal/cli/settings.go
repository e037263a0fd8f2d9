package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/latebit/wikirace/internal/leaderboard"
	"github.com/latebit/wikirace/internal/settings"
	"github.com/latebit/wikirace/internal/wiki"
)

func init() {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change player settings",
		Long:  "Without flags, print the settings. Flags change and save them; they apply to the next game.",
		Run:   runSettings,
	}

	cmd.Flags().Bool("backtracking", true, "Allow going back, jumping and branching")
	cmd.Flags().String("difficulty", "", "Difficulty of random scenarios: any, easy, normal or hard")
	cmd.Flags().String("nickname", "", "Default leaderboard nickname")

	RootCmd.AddCommand(cmd)
}

func runSettings(cmd *cobra.Command, args []string) {
	f, err := settings.Load(loadConfig().SettingsPath())
	if err != nil {
		exitErr("load settings", err)
	}

	changed := false
	if cmd.Flags().Changed("backtracking") {
		f.AllowBacktracking, _ = cmd.Flags().GetBool("backtracking")
		changed = true
	}
	if cmd.Flags().Changed("difficulty") {
		raw, _ := cmd.Flags().GetString("difficulty")
		d, err := wiki.ParseDifficulty(raw)
		if err != nil {
			exitErr("settings", err)
		}
		f.Difficulty = string(d)
		changed = true
	}
	if cmd.Flags().Changed("nickname") {
		nickname, _ := cmd.Flags().GetString("nickname")
		nickname = strings.TrimSpace(nickname)
		if utf8.RuneCountInString(nickname) > leaderboard.MaxNicknameLength {
			exitErr("settings", fmt.Errorf("nickname longer than %d characters", leaderboard.MaxNicknameLength))
		}
		f.Nickname = nickname
		changed = true
	}

	if changed {
		if err := f.Save(); err != nil {
			exitErr("save settings", err)
		}
	}
	printJSON(cmd, f.Settings)
}
