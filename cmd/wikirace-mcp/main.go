// Command wikirace-mcp is an MCP server that lets an LLM agent play
// wikirace. The agent starts a race, reads the current document and its
// links, and follows links until it reaches the goal. Finished games can be
// submitted to the local leaderboard. It runs over stdio transport.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/latebit/wikirace/internal/branch"
	"github.com/latebit/wikirace/internal/clock"
	"github.com/latebit/wikirace/internal/config"
	"github.com/latebit/wikirace/internal/game"
	"github.com/latebit/wikirace/internal/leaderboard"
	"github.com/latebit/wikirace/internal/logging"
	"github.com/latebit/wikirace/internal/ratelimit"
	"github.com/latebit/wikirace/internal/settings"
	"github.com/latebit/wikirace/internal/wiki"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}
	packDir := flag.String("pack", cfg.PackDir, "document pack directory (default: built-in pack)")
	dataDir := flag.String("data", cfg.DataDir, "directory holding the leaderboard and settings")
	rateFlag := flag.Int("rate", cfg.MCPRate, "tool calls allowed per second per tool (0: unlimited)")
	flag.Parse()
	cfg.PackDir = *packDir
	cfg.DataDir = *dataDir

	// stdout carries the MCP protocol, so logs go to stderr.
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	pack, err := wiki.Open(context.Background(), cfg.PackDir)
	if err != nil {
		log.Fatalf("load pack: %v", err)
	}
	prefs, err := settings.Load(cfg.SettingsPath())
	if err != nil {
		log.Fatal(err)
	}
	board, err := leaderboard.NewSQLiteStore(cfg.LeaderboardPath())
	if err != nil {
		log.Fatalf("open leaderboard: %v", err)
	}
	defer board.Close()

	clk := clock.Real()
	session := prefs.Game()
	h := &handler{
		engine: game.New(pack, game.Options{Clock: clk, Logger: logger, Settings: &session}),
		pack:   pack,
		board:  board,
		prefs:  prefs,
		clock:  clk,
	}

	s := server.NewMCPServer("wikirace-mcp", "0.1.0")
	limit := ratelimit.New(float64(*rateFlag), 2*(*rateFlag))
	for _, t := range h.tools() {
		s.AddTool(t.tool, throttle(limit, t.tool.Name, t.handle))
	}

	logger.Info("serving", "documents", pack.Graph.Len(), "scenarios", len(pack.Scenarios))
	if err := server.ServeStdio(s); err != nil {
		log.Fatal(err)
	}
}

type handler struct {
	engine *game.Engine
	pack   *wiki.Pack
	board  leaderboard.Store
	prefs  *settings.File // nil: settings are not persisted
	clock  clock.Clock

	// prefsMu serializes settings changes and saves. mcp-go runs tool
	// calls concurrently.
	prefsMu sync.Mutex
}

type tool struct {
	tool   mcp.Tool
	handle server.ToolHandlerFunc
}

func (h *handler) tools() []tool {
	return []tool{
		{raceStartTool(), h.raceStart},
		{raceStateTool(), h.raceState},
		{raceNavigateTool(), h.raceNavigate},
		{raceBackTool(), h.raceBack},
		{raceJumpTool(), h.raceJump},
		{raceBranchTool(), h.raceBranch},
		{raceMenuTool(), h.raceMenu},
		{raceSettingsTool(), h.raceSettings},
		{raceSubmitTool(), h.raceSubmit},
		{raceLeaderboardTool(), h.raceLeaderboard},
		{raceReplayTool(), h.raceReplay},
	}
}

// throttle rejects calls to a tool once its rate limit is exhausted.
func throttle(l *ratelimit.Limiter, name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !l.Allow(name) {
			return mcp.NewToolResultError(fmt.Sprintf("%s: too many calls, slow down", name)), nil
		}
		return next(ctx, req)
	}
}

// Tool definitions.

func raceStartTool() mcp.Tool {
	return mcp.NewTool("race_start",
		mcp.WithDescription(
			"Start a new race, replacing any race in progress. "+
				"Without arguments a random scenario of the configured difficulty is chosen. "+
				"Returns the start document, the goal and the links you can follow.",
		),
		mcp.WithString("difficulty",
			mcp.Description("pick a random scenario of this difficulty: any, easy, normal or hard"),
		),
		mcp.WithNumber("scenario",
			mcp.Description("play a specific scenario by its 1-based number instead of a random one"),
		),
	)
}

func raceStateTool() mcp.Tool {
	return mcp.NewTool("race_state",
		mcp.WithDescription(
			"Show the current race: scenario, moves, elapsed time, the current document, "+
				"the path so far and the links available from here.",
		),
		mcp.WithBoolean("content",
			mcp.Description("include the markdown body of the current document (default false)"),
		),
	)
}

func raceNavigateTool() mcp.Tool {
	return mcp.NewTool("race_navigate",
		mcp.WithDescription(
			"Follow a link from the current document. Only documents listed under links "+
				"in race_state can be reached. Reaching the goal finishes the race.",
		),
		mcp.WithString("doc",
			mcp.Required(),
			mcp.Description("id of the linked document, e.g. seoul"),
		),
	)
}

func raceBackTool() mcp.Tool {
	return mcp.NewTool("race_back",
		mcp.WithDescription(
			"Go back to the previous document on the current path. Counts as a move. "+
				"Fails when backtracking is disabled.",
		),
	)
}

func raceJumpTool() mcp.Tool {
	return mcp.NewTool("race_jump",
		mcp.WithDescription(
			"Jump back to an earlier document on the current path, dropping everything after it. "+
				"Counts as a move. Fails when backtracking is disabled.",
		),
		mcp.WithString("doc",
			mcp.Required(),
			mcp.Description("id of a document on the current path"),
		),
	)
}

func raceBranchTool() mcp.Tool {
	return mcp.NewTool("race_branch",
		mcp.WithDescription(
			"Resume from any document ever visited in this race, including abandoned routes. "+
				"Coordinates are listed under branches in race_state. Counts as a move.",
		),
		mcp.WithNumber("branch",
			mcp.Required(),
			mcp.Description("branch id"),
		),
		mcp.WithNumber("index",
			mcp.Required(),
			mcp.Description("0-based position in the branch"),
		),
	)
}

func raceMenuTool() mcp.Tool {
	return mcp.NewTool("race_menu",
		mcp.WithDescription("Abandon the current race and return to the menu. Settings are kept."),
	)
}

func raceSettingsTool() mcp.Tool {
	return mcp.NewTool("race_settings",
		mcp.WithDescription(
			"Show or change settings. Changes apply to the next race and are saved.",
		),
		mcp.WithBoolean("allow_backtracking",
			mcp.Description("allow going back, jumping and branching"),
		),
		mcp.WithString("difficulty",
			mcp.Description("difficulty of random scenarios: any, easy, normal or hard"),
		),
	)
}

func raceSubmitTool() mcp.Tool {
	return mcp.NewTool("race_submit",
		mcp.WithDescription(
			"Submit the finished race to the leaderboard. Only the top 10 scores are kept.",
		),
		mcp.WithString("nickname",
			mcp.Description(fmt.Sprintf("up to %d characters (default: the saved nickname)", leaderboard.MaxNicknameLength)),
		),
	)
}

func raceLeaderboardTool() mcp.Tool {
	return mcp.NewTool("race_leaderboard",
		mcp.WithDescription("List the leaderboard in rank order."),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("number of entries (default and max %d)", leaderboard.Capacity)),
		),
	)
}

func raceReplayTool() mcp.Tool {
	return mcp.NewTool("race_replay",
		mcp.WithDescription("Replay a leaderboard entry step by step."),
		mcp.WithNumber("rank",
			mcp.Required(),
			mcp.Description("1-based leaderboard rank"),
		),
	)
}

// Tool handlers.
// Handler signatures are dictated by mcp-go's ToolHandlerFunc type.

func (h *handler) raceStart(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if raw := req.GetString("difficulty", ""); raw != "" {
		d, err := wiki.ParseDifficulty(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		h.engine.SetDifficulty(d)
	}

	var err error
	if n := req.GetInt("scenario", 0); n != 0 {
		if n < 1 || n > len(h.pack.Scenarios) {
			return mcp.NewToolResultError(fmt.Sprintf("scenario must be between 1 and %d", len(h.pack.Scenarios))), nil
		}
		err = h.engine.StartScenario(h.pack.Scenarios[n-1])
	} else {
		err = h.engine.StartGame()
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start failed: %v", err)), nil
	}
	return mcp.NewToolResultText(h.formatState(h.engine.Snapshot(), false)), nil
}

func (h *handler) raceState(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(h.formatState(h.engine.Snapshot(), req.GetBool("content", false))), nil
}

func (h *handler) raceNavigate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError("doc is required"), nil
	}
	return h.apply("navigate", h.engine.NavigateTo(doc))
}

func (h *handler) raceBack(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.apply("back", h.engine.GoBack())
}

func (h *handler) raceJump(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError("doc is required"), nil
	}
	return h.apply("jump", h.engine.JumpToNode(doc))
}

func (h *handler) raceBranch(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("branch")
	if err != nil {
		return mcp.NewToolResultError("branch is required"), nil
	}
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError("index is required"), nil
	}
	return h.apply("branch", h.engine.BranchFromHistory(branch.ID(id), index))
}

func (h *handler) raceMenu(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.engine.ReturnToMenu()
	return mcp.NewToolResultText("returned to menu\n\n" + formatSettings(h.engine.Settings())), nil
}

func (h *handler) raceSettings(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.prefsMu.Lock()
	defer h.prefsMu.Unlock()

	changed := false
	if _, ok := req.GetArguments()["allow_backtracking"]; ok {
		h.engine.SetAllowBacktracking(req.GetBool("allow_backtracking", true))
		changed = true
	}
	if raw := req.GetString("difficulty", ""); raw != "" {
		d, err := wiki.ParseDifficulty(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		h.engine.SetDifficulty(d)
		changed = true
	}

	current := h.engine.Settings()
	if changed && h.prefs != nil {
		h.prefs.Update(current)
		if err := h.prefs.Save(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save settings: %v", err)), nil
		}
	}
	return mcp.NewToolResultText(formatSettings(current)), nil
}

func (h *handler) raceSubmit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nickname := req.GetString("nickname", "")
	if nickname == "" {
		nickname = h.savedNickname()
	}
	e, err := leaderboard.FromSnapshot(nickname, h.engine.Snapshot())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submit failed: %v", err)), nil
	}
	saved, err := h.board.Submit(ctx, e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submit failed: %v", err)), nil
	}
	if err := h.saveNickname(saved.Nickname); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save settings: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("ranked #%d with %d points", saved.Rank, saved.Score)), nil
}

func (h *handler) savedNickname() string {
	if h.prefs == nil {
		return ""
	}
	h.prefsMu.Lock()
	defer h.prefsMu.Unlock()
	return h.prefs.Nickname
}

func (h *handler) saveNickname(nickname string) error {
	if h.prefs == nil {
		return nil
	}
	h.prefsMu.Lock()
	defer h.prefsMu.Unlock()
	if h.prefs.Nickname == nickname {
		return nil
	}
	h.prefs.Nickname = nickname
	return h.prefs.Save()
}

func (h *handler) raceLeaderboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := h.board.List(ctx, req.GetInt("limit", leaderboard.Capacity))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatLeaderboard(entries)), nil
}

func (h *handler) raceReplay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rank, err := req.RequireInt("rank")
	if err != nil {
		return mcp.NewToolResultError("rank is required"), nil
	}
	e, err := h.board.Get(ctx, rank)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("replay failed: %v", err)), nil
	}
	replay, err := leaderboard.Replay(*e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("replay failed: %v", err)), nil
	}
	return mcp.NewToolResultText(replay.Markdown()), nil
}

// apply reports the outcome of an engine operation together with the new
// state.
func (h *handler) apply(op string, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		msg := fmt.Sprintf("%s failed: %v", op, err)
		if errors.Is(err, game.ErrNotPlaying) {
			msg += " (use race_start)"
		}
		return mcp.NewToolResultError(msg), nil
	}
	return mcp.NewToolResultText(h.formatState(h.engine.Snapshot(), false)), nil
}

// formatState renders a snapshot as plain text for LLM consumption.
func (h *handler) formatState(s game.Snapshot, content bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "status: %s\n", s.Status)
	if s.Status == game.StatusIdle {
		b.WriteString("\n" + formatSettings(s.Settings))
		b.WriteString("\nScenarios:\n")
		b.WriteString(formatScenarios(h.pack))
		return b.String()
	}

	fmt.Fprintf(&b, "goal: %s (%s)\n", s.GoalTitle, s.Scenario.Goal)
	fmt.Fprintf(&b, "moves: %d  par: %d  elapsed: %ds\n", s.Moves, s.Par, s.ElapsedSeconds(h.clock.Now()))
	if s.Status == game.StatusFinished {
		fmt.Fprintf(&b, "score: %d  grade: %s  efficiency: %s\n", s.Score, game.Grade(s.Score), game.Efficiency(s.Score))
		b.WriteString("Use race_submit to enter the leaderboard.\n")
	}
	fmt.Fprintf(&b, "current: %s (%s)\n", s.Current.Title, s.Current.ID)
	fmt.Fprintf(&b, "path: %s\n", strings.Join(s.Path, " > "))

	if s.Status == game.StatusPlaying {
		if len(s.Links) == 0 {
			b.WriteString("\nNo links from here.")
			if s.AllowBacktracking {
				b.WriteString(" Use race_back or race_branch.")
			}
			b.WriteString("\n")
		} else {
			b.WriteString("\nLinks:\n")
			for _, l := range s.Links {
				fmt.Fprintf(&b, "  %-28s %s\n", l.ID, l.Title)
			}
		}
	}

	if len(s.Branches) > 1 {
		fmt.Fprintf(&b, "\nBranches (active %d):\n", s.ActiveBranch)
		for _, br := range s.Branches {
			if br.ParentID == branch.NoParent {
				fmt.Fprintf(&b, "  %d: %s\n", br.ID, strings.Join(br.Nodes, " > "))
				continue
			}
			fmt.Fprintf(&b, "  %d (from %d:%d): %s\n", br.ID, br.ParentID, br.ParentIndex, strings.Join(br.Nodes, " > "))
		}
	}

	if content {
		b.WriteString("\n---\n")
		b.WriteString(s.Current.Content)
	}
	return b.String()
}

func formatSettings(s game.Settings) string {
	return fmt.Sprintf("allow_backtracking: %t\ndifficulty: %s\n", s.AllowBacktracking, s.Difficulty)
}

func formatScenarios(p *wiki.Pack) string {
	var b strings.Builder
	for i, s := range p.Scenarios {
		fmt.Fprintf(&b, "  %d. %s -> %s [%s, par %d]\n", i+1, s.Start, s.Goal, s.Difficulty, p.Par(s))
	}
	return b.String()
}

func formatLeaderboard(entries []leaderboard.Entry) string {
	if len(entries) == 0 {
		return "The leaderboard is empty."
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%2d. %-20s %4d pts  %2d moves  %4ds  %s -> %s [%s]\n",
			e.Rank, e.Nickname, e.Score, e.Moves, e.Time, e.StartTitle, e.GoalTitle, e.Difficulty)
	}
	return b.String()
}
