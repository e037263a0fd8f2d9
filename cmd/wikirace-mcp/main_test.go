package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/latebit/wikirace/internal/clock"
	"github.com/latebit/wikirace/internal/game"
	"github.com/latebit/wikirace/internal/leaderboard"
	"github.com/latebit/wikirace/internal/ratelimit"
	"github.com/latebit/wikirace/internal/settings"
	"github.com/latebit/wikirace/internal/wiki"
)

func testPack() *wiki.Pack {
	g := wiki.NewGraph()
	g.AddDocument(wiki.Document{ID: "a", Title: "Alpha", Links: []string{"b", "c"}, Content: "# Alpha\n\nfirst letter"})
	g.AddDocument(wiki.Document{ID: "b", Title: "Bravo", Links: []string{"c", "d"}})
	g.AddDocument(wiki.Document{ID: "c", Title: "Charlie", Links: []string{"a"}})
	g.AddDocument(wiki.Document{ID: "d", Title: "Delta"})
	return &wiki.Pack{Graph: g, Scenarios: []wiki.Scenario{
		{Start: "a", Goal: "d", Difficulty: wiki.DifficultyEasy},
		{Start: "c", Goal: "d", Difficulty: wiki.DifficultyHard},
	}}
}

func newTestHandler(t *testing.T) (*handler, *clock.FakeClock) {
	t.Helper()
	dir := t.TempDir()
	board, err := leaderboard.NewSQLiteStore(filepath.Join(dir, "leaderboard.db"))
	if err != nil {
		t.Fatalf("open leaderboard: %v", err)
	}
	t.Cleanup(func() { board.Close() })
	prefs, err := settings.Load(filepath.Join(dir, "settings.toml"))
	if err != nil {
		t.Fatal(err)
	}

	clk := clock.Fake(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	pack := testPack()
	return &handler{
		engine: game.New(pack, game.Options{Clock: clk}),
		pack:   pack,
		board:  board,
		prefs:  prefs,
		clock:  clk,
	}, clk
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name         string
		tool         mcp.Tool
		wantName     string
		wantRequired []string
		wantDesc     string // substring to check
	}{
		{"race_start", raceStartTool(), "race_start", nil, "Start a new race"},
		{"race_state", raceStateTool(), "race_state", nil, "current document"},
		{"race_navigate", raceNavigateTool(), "race_navigate", []string{"doc"}, "Follow a link"},
		{"race_back", raceBackTool(), "race_back", nil, "previous document"},
		{"race_jump", raceJumpTool(), "race_jump", []string{"doc"}, "earlier document"},
		{"race_branch", raceBranchTool(), "race_branch", []string{"branch", "index"}, "abandoned routes"},
		{"race_menu", raceMenuTool(), "race_menu", nil, "menu"},
		{"race_settings", raceSettingsTool(), "race_settings", nil, "settings"},
		{"race_submit", raceSubmitTool(), "race_submit", nil, "leaderboard"},
		{"race_leaderboard", raceLeaderboardTool(), "race_leaderboard", nil, "rank order"},
		{"race_replay", raceReplayTool(), "race_replay", []string{"rank"}, "Replay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if !strings.Contains(tt.tool.Description, tt.wantDesc) {
				t.Errorf("description %q does not contain %q", tt.tool.Description, tt.wantDesc)
			}
			schema := tt.tool.InputSchema
			for _, req := range tt.wantRequired {
				if !slices.Contains(schema.Required, req) {
					t.Errorf("required params %v missing %q", schema.Required, req)
				}
				if _, ok := schema.Properties[req]; !ok {
					t.Errorf("properties missing key %q", req)
				}
			}
		})
	}
}

// newCallToolRequest builds a CallToolRequest with the given arguments.
func newCallToolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

type toolFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, fn toolFunc, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := fn(context.Background(), newCallToolRequest(args))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	return result
}

func TestIdleStateListsScenarios(t *testing.T) {
	h, _ := newTestHandler(t)
	text := assertToolText(t, call(t, h.raceState, nil))
	for _, want := range []string{"status: idle", "allow_backtracking: true", "1. a -> d [easy, par 2]", "2. c -> d [hard, par 3]"} {
		if !strings.Contains(text, want) {
			t.Errorf("state %q missing %q", text, want)
		}
	}
}

func TestRaceToFinish(t *testing.T) {
	h, clk := newTestHandler(t)

	text := assertToolText(t, call(t, h.raceStart, map[string]any{"scenario": 1}))
	for _, want := range []string{"status: playing", "goal: Delta (d)", "current: Alpha (a)", "Links:", "Bravo"} {
		if !strings.Contains(text, want) {
			t.Errorf("start state missing %q:\n%s", want, text)
		}
	}

	steps := []struct {
		fn   toolFunc
		args map[string]any
	}{
		{h.raceNavigate, map[string]any{"doc": "c"}},
		{h.raceBack, nil},
		{h.raceNavigate, map[string]any{"doc": "b"}},
	}
	for i, s := range steps {
		clk.Advance(2 * time.Second)
		assertToolText(t, call(t, s.fn, s.args))
		if t.Failed() {
			t.Fatalf("step %d failed", i)
		}
	}

	text = assertToolText(t, call(t, h.raceState, nil))
	if !strings.Contains(text, "Branches (active 1):") || !strings.Contains(text, "1 (from 0:0): a > b") {
		t.Errorf("state missing branch forest:\n%s", text)
	}

	clk.Advance(4 * time.Second)
	text = assertToolText(t, call(t, h.raceNavigate, map[string]any{"doc": "d"}))
	// 4 moves in 10 seconds.
	if !strings.Contains(text, "status: finished") || !strings.Contains(text, "score: 790") {
		t.Errorf("finished state:\n%s", text)
	}

	text = assertToolText(t, call(t, h.raceSubmit, map[string]any{"nickname": "kim"}))
	if text != "ranked #1 with 790 points" {
		t.Errorf("submit = %q", text)
	}
	if h.prefs.Nickname != "kim" {
		t.Errorf("nickname not remembered: %q", h.prefs.Nickname)
	}
	assertIsToolError(t, call(t, h.raceSubmit, nil), "already on the leaderboard")

	text = assertToolText(t, call(t, h.raceLeaderboard, nil))
	if !strings.Contains(text, "kim") || !strings.Contains(text, "Alpha -> Delta") {
		t.Errorf("leaderboard = %q", text)
	}

	text = assertToolText(t, call(t, h.raceReplay, map[string]any{"rank": 1}))
	if !strings.Contains(text, "# #1 kim") || !strings.Contains(text, "3. `d` at move 4") {
		t.Errorf("replay = %q", text)
	}
	assertIsToolError(t, call(t, h.raceReplay, map[string]any{"rank": 2}), "no entry at that rank")
}

func TestHandlerErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	assertIsToolError(t, call(t, h.raceBack, nil), "use race_start")
	assertIsToolError(t, call(t, h.raceStart, map[string]any{"scenario": 9}), "between 1 and 2")
	assertIsToolError(t, call(t, h.raceStart, map[string]any{"difficulty": "extreme"}), "unknown difficulty")
	assertIsToolError(t, call(t, h.raceSubmit, map[string]any{"nickname": "kim"}), "not finished")

	call(t, h.raceStart, map[string]any{"scenario": 1})
	assertIsToolError(t, call(t, h.raceNavigate, map[string]any{}), "doc is required")
	assertIsToolError(t, call(t, h.raceNavigate, map[string]any{"doc": "d"}), "not linked")
	assertIsToolError(t, call(t, h.raceBack, nil), "already at the start")
	assertIsToolError(t, call(t, h.raceJump, map[string]any{"doc": "d"}), "not on the current path")
	assertIsToolError(t, call(t, h.raceBranch, map[string]any{"branch": 4, "index": 0}), "fork")
	assertIsToolError(t, call(t, h.raceBranch, map[string]any{"index": 0}), "branch is required")
}

func TestRandomStartUsesDifficulty(t *testing.T) {
	h, _ := newTestHandler(t)
	text := assertToolText(t, call(t, h.raceStart, map[string]any{"difficulty": "hard"}))
	if !strings.Contains(text, "current: Charlie (c)") {
		t.Errorf("hard scenario should start at c:\n%s", text)
	}
	if got := h.engine.Settings().Difficulty; got != wiki.DifficultyHard {
		t.Errorf("difficulty = %q", got)
	}
}

func TestSettingsArePersisted(t *testing.T) {
	h, _ := newTestHandler(t)
	text := assertToolText(t, call(t, h.raceSettings, map[string]any{"allow_backtracking": false, "difficulty": "normal"}))
	if !strings.Contains(text, "allow_backtracking: false") || !strings.Contains(text, "difficulty: normal") {
		t.Errorf("settings = %q", text)
	}

	reloaded, err := settings.Load(h.prefs.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.AllowBacktracking || reloaded.Difficulty != "normal" {
		t.Errorf("saved settings = %+v", reloaded.Settings)
	}

	call(t, h.raceStart, map[string]any{"scenario": 1})
	call(t, h.raceNavigate, map[string]any{"doc": "b"})
	assertIsToolError(t, call(t, h.raceBack, nil), "backtracking is disabled")

	text = assertToolText(t, call(t, h.raceMenu, nil))
	if !strings.Contains(text, "returned to menu") {
		t.Errorf("menu = %q", text)
	}
	if s := h.engine.Snapshot(); s.Status != game.StatusIdle {
		t.Errorf("status = %q, want idle", s.Status)
	}
}

func TestConcurrentSettingsChanges(t *testing.T) {
	h, _ := newTestHandler(t)
	difficulties := []string{"easy", "normal", "hard", "any"}

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			args := map[string]any{
				"difficulty":         difficulties[i%len(difficulties)],
				"allow_backtracking": i%2 == 0,
			}
			if res, err := h.raceSettings(context.Background(), newCallToolRequest(args)); err != nil || res.IsError {
				t.Errorf("raceSettings %d: err %v result %+v", i, err, res)
			}
			if err := h.saveNickname(fmt.Sprintf("player%d", i)); err != nil {
				t.Errorf("saveNickname %d: %v", i, err)
			}
			_ = h.savedNickname()
		}()
	}
	wg.Wait()

	reloaded, err := settings.Load(h.prefs.Path())
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if got, want := reloaded.Game(), h.engine.Settings(); got != want {
		t.Errorf("saved settings %+v, engine settings %+v", got, want)
	}
	if reloaded.Nickname != h.savedNickname() {
		t.Errorf("saved nickname %q, in memory %q", reloaded.Nickname, h.savedNickname())
	}
}

func TestStateContent(t *testing.T) {
	h, _ := newTestHandler(t)
	call(t, h.raceStart, map[string]any{"scenario": 1})
	text := assertToolText(t, call(t, h.raceState, map[string]any{"content": true}))
	if !strings.Contains(text, "first letter") {
		t.Errorf("state without document body:\n%s", text)
	}
}

func TestLeaderboardEmpty(t *testing.T) {
	h, _ := newTestHandler(t)
	if text := assertToolText(t, call(t, h.raceLeaderboard, nil)); text != "The leaderboard is empty." {
		t.Errorf("leaderboard = %q", text)
	}
}

func TestToolsAreRegistered(t *testing.T) {
	h, _ := newTestHandler(t)
	var names []string
	for _, tool := range h.tools() {
		names = append(names, tool.tool.Name)
	}
	if len(names) != 11 || !slices.Contains(names, "race_replay") {
		t.Errorf("tools = %v", names)
	}
}

func TestThrottle(t *testing.T) {
	h, _ := newTestHandler(t)
	limited := toolFunc(throttle(ratelimit.New(1, 2), "race_state", h.raceState))

	for i := range 2 {
		if res := call(t, limited, nil); res.IsError {
			t.Fatalf("call %d rejected", i)
		}
	}
	assertIsToolError(t, call(t, limited, nil), "too many calls")

	unlimited := toolFunc(throttle(ratelimit.New(0, 0), "race_state", h.raceState))
	for range 5 {
		if res := call(t, unlimited, nil); res.IsError {
			t.Fatal("unlimited call rejected")
		}
	}
}

func assertToolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	if result.IsError {
		t.Errorf("unexpected tool error: %s", text.Text)
	}
	return text.Text
}

// assertIsToolError checks that a CallToolResult is an error containing the given substring.
func assertIsToolError(t *testing.T, result *mcp.CallToolResult, substr string) {
	t.Helper()
	if !result.IsError {
		t.Fatal("expected tool error result")
	}
	if len(result.Content) == 0 {
		t.Fatal("expected content in error result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	if !strings.Contains(text.Text, substr) {
		t.Errorf("error text %q does not contain %q", text.Text, substr)
	}
}
