// Command wikirace-tui is the terminal front end of wikirace: reach the goal
// document from the start document by following links.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/latebit/wikirace/internal/clock"
	"github.com/latebit/wikirace/internal/config"
	"github.com/latebit/wikirace/internal/game"
	"github.com/latebit/wikirace/internal/leaderboard"
	"github.com/latebit/wikirace/internal/logging"
	"github.com/latebit/wikirace/internal/settings"
	"github.com/latebit/wikirace/internal/wiki"
)

type screen int

const (
	screenMenu screen = iota
	screenPlay
	screenHistory
	screenComplete
	screenLeaderboard
	screenReplay
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6"))
	currentStyle = lipgloss.NewStyle().Bold(true)
	goalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F472B6"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

type model struct {
	engine   *game.Engine
	pack     *wiki.Pack
	board    leaderboard.Store
	prefs    *settings.File
	clock    clock.Clock
	log      *slog.Logger
	navDelay time.Duration

	screen   screen
	viewport viewport.Model
	nickname textinput.Model
	width    int
	height   int
	ready    bool

	snap    game.Snapshot
	cursor  int
	loading bool
	ticking bool
	notice  string

	history   []historyItem
	entries   []leaderboard.Entry
	submitted *leaderboard.Entry
	replay    string

	renderedPage  string
	renderedID    string
	renderedWidth int
}

func initialModel(engine *game.Engine, pack *wiki.Pack, board leaderboard.Store, prefs *settings.File, clk clock.Clock, logger *slog.Logger, navDelay time.Duration) model {
	ti := textinput.New()
	ti.Placeholder = "nickname"
	ti.Prompt = " "
	ti.CharLimit = leaderboard.MaxNicknameLength
	if prefs != nil {
		ti.SetValue(prefs.Nickname)
	}

	return model{
		engine:   engine,
		pack:     pack,
		board:    board,
		prefs:    prefs,
		clock:    clk,
		log:      logger,
		navDelay: navDelay,
		nickname: ti,
		snap:     engine.Snapshot(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.ready {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 3 // title, subtitle, divider
		footerHeight := 1 // status bar
		viewportHeight := max(m.height-headerHeight-footerHeight, 1)

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.nickname.Width = m.width - 2
		m.refreshContent()
		return m, nil

	case tickMsg:
		if m.snap.Status != game.StatusPlaying {
			m.ticking = false
			return m, nil
		}
		// The header reads the clock directly; a tick only forces a redraw.
		return m, tick()

	case navigatedMsg:
		return m.handleNavigated(msg)

	case submittedMsg:
		return m.handleSubmitted(msg)

	case leaderboardMsg:
		return m.handleLeaderboard(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.screen {
	case screenPlay:
		return m.handlePlayKey(msg)
	case screenHistory:
		return m.handleHistoryKey(msg)
	case screenComplete:
		return m.handleCompleteKey(msg)
	case screenLeaderboard:
		return m.handleLeaderboardKey(msg)
	case screenReplay:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc", "backspace":
			m.screen = screenLeaderboard
			m.refreshContent()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m.handleMenuKey(msg)
}

// Menu.

const (
	menuStart = iota
	menuBacktracking
	menuDifficulty
	menuLeaderboard
	menuQuit
	menuItems
)

func (m model) enterMenu() (tea.Model, tea.Cmd) {
	m.screen = screenMenu
	m.snap = m.engine.Snapshot()
	m.cursor = menuStart
	m.refreshContent()
	return m, nil
}

func (m model) menuView() string {
	s := m.engine.Settings()
	onOff := "off"
	if s.AllowBacktracking {
		onOff = "on"
	}
	labels := [menuItems]string{
		"Start race",
		"Backtracking: " + onOff,
		"Difficulty: " + s.Difficulty.String(),
		"Leaderboard",
		"Quit",
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, label := range labels {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		fmt.Fprintf(&b, "  %s%s\n", cursor, label)
	}
	fmt.Fprintf(&b, "\n  %d documents, %d scenarios\n", m.pack.Graph.Len(), len(m.pack.Scenarios))
	return b.String()
}

func (m model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		m.cursor = (m.cursor + 1) % menuItems
	case "k", "up":
		m.cursor = (m.cursor + menuItems - 1) % menuItems
	case "enter", " ":
		switch m.cursor {
		case menuStart:
			return m.startGame()
		case menuBacktracking:
			m.engine.SetAllowBacktracking(!m.engine.Settings().AllowBacktracking)
			m.saveSettings()
		case menuDifficulty:
			m.engine.SetDifficulty(m.engine.Settings().Difficulty.Next())
			m.saveSettings()
		case menuLeaderboard:
			return m, m.loadLeaderboard()
		case menuQuit:
			return m, tea.Quit
		}
	case "s":
		return m.startGame()
	case "l":
		return m, m.loadLeaderboard()
	}
	m.refreshContent()
	return m, nil
}

func (m model) startGame() (tea.Model, tea.Cmd) {
	if err := m.engine.StartGame(); err != nil {
		m.notice = err.Error()
		m.refreshContent()
		return m, nil
	}
	m.notice = ""
	m.submitted = nil
	m.loading = false
	next, cmd := m.afterMove()
	mm := next.(model)
	if !mm.ticking {
		mm.ticking = true
		cmd = tea.Batch(cmd, tick())
	}
	return mm, cmd
}

func (m *model) saveSettings() {
	if m.prefs == nil {
		return
	}
	m.prefs.Update(m.engine.Settings())
	if err := m.prefs.Save(); err != nil {
		m.notice = err.Error()
		m.log.Warn("save settings", "err", err)
	}
}

// title returns the display title of a document.
func (m model) title(doc string) string {
	if d, ok := m.pack.Document(doc); ok && d.Title != "" {
		return d.Title
	}
	return doc
}

// refreshContent re-renders the viewport for the current screen.
func (m *model) refreshContent() {
	if !m.ready {
		return
	}
	switch m.screen {
	case screenMenu:
		m.viewport.SetContent(m.menuView())
	case screenPlay:
		m.viewport.SetContent(m.renderPage())
	case screenHistory:
		m.viewport.SetContent(renderHistoryView(m.history, m.cursor, m.width))
	case screenComplete:
		m.viewport.SetContent(m.completeView())
	case screenLeaderboard:
		m.viewport.SetContent(renderLeaderboard(m.entries, m.cursor))
	case screenReplay:
		m.viewport.SetContent(m.replay)
	}
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("─", m.width))
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(m.statusBarView())
	return b.String()
}

func (m model) headerView() string {
	style := lipgloss.NewStyle().Padding(0, 1).Width(m.width)
	switch m.screen {
	case screenPlay, screenHistory:
		return m.playHeader()
	case screenComplete:
		return style.Render(titleStyle.Render("Goal reached!")) + "\n" +
			style.Faint(true).Render(m.snap.StartTitle+" → "+m.snap.GoalTitle)
	case screenLeaderboard, screenReplay:
		return style.Render(titleStyle.Render("Leaderboard")) + "\n" +
			style.Faint(true).Render(fmt.Sprintf("top %d races", leaderboard.Capacity))
	}
	return style.Render(titleStyle.Render("wikirace")) + "\n" +
		style.Faint(true).Render("reach the goal page by following links")
}

func (m model) statusBarView() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1)

	if m.loading {
		return style.Render("Loading...")
	}
	if m.notice != "" {
		return noticeStyle.Inherit(style).Render(m.notice)
	}

	var help string
	switch m.screen {
	case screenMenu:
		help = "[j/k] move  [enter] select  [s] start  [l] leaderboard  [q] quit"
	case screenPlay:
		help = "[1-9/enter] follow  [b] back  [h] history  [esc] menu"
	case screenHistory:
		help = "[j/k] move  [enter] go there  [f] fork  [esc] page"
	case screenComplete:
		help = "[enter] submit  [n] new race  [l] leaderboard  [esc] menu"
	case screenLeaderboard:
		help = "[j/k] move  [enter] replay  [esc] menu"
	case screenReplay:
		help = "[esc] leaderboard"
	}
	scroll := fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))
	return style.Faint(true).Render(help + "  " + scroll)
}

func renderMarkdown(body string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	packDir := flag.String("pack", cfg.PackDir, "document pack directory (default: built-in pack)")
	dataDir := flag.String("data", cfg.DataDir, "directory holding the leaderboard, settings and log")
	delay := flag.Duration("delay", cfg.NavDelay, "pause before a followed link opens")
	flag.Parse()
	cfg.PackDir = *packDir
	cfg.DataDir = *dataDir

	// The alternate screen owns the terminal, so logs go to a file.
	logger, logFile, err := logging.OpenFile(cfg.LogPath(), cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	if err := run(cfg, *delay, logger); err != nil {
		logger.Error("exit", "err", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, delay time.Duration, logger *slog.Logger) error {
	pack, err := wiki.Open(context.Background(), cfg.PackDir)
	if err != nil {
		return fmt.Errorf("load pack: %w", err)
	}
	prefs, err := settings.Load(cfg.SettingsPath())
	if err != nil {
		return err
	}
	board, err := leaderboard.NewSQLiteStore(cfg.LeaderboardPath())
	if err != nil {
		return fmt.Errorf("open leaderboard: %w", err)
	}
	defer board.Close()

	clk := clock.Real()
	session := prefs.Game()
	engine := game.New(pack, game.Options{Clock: clk, Logger: logger, Settings: &session})

	p := tea.NewProgram(
		initialModel(engine, pack, board, prefs, clk, logger, delay),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}
