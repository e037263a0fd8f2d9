package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/latebit/wikirace/internal/game"
	"github.com/latebit/wikirace/internal/leaderboard"
)

type submittedMsg struct {
	entry *leaderboard.Entry
	err   error
}

type leaderboardMsg struct {
	entries []leaderboard.Entry
	err     error
}

func (m model) enterComplete() (tea.Model, tea.Cmd) {
	m.screen = screenComplete
	m.submitted = nil
	m.loading = false
	m.nickname.Focus()
	m.refreshContent()
	m.viewport.GotoTop()
	return m, nil
}

// summaryMarkdown describes a finished game.
func summaryMarkdown(s game.Snapshot, title func(doc string) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", game.Grade(s.Score))
	fmt.Fprintf(&b, "**%s** → **%s**\n\n", s.StartTitle, s.GoalTitle)
	b.WriteString("| score | moves | par | time | efficiency |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %s | %s |\n\n", s.Score, s.Moves, s.Par, formatDuration(s.Elapsed(s.EndTime)), game.Efficiency(s.Score))
	if len(s.Branches) > 1 {
		fmt.Fprintf(&b, "Explored %d branches.\n\n", len(s.Branches))
	}
	b.WriteString("## Path\n\n")
	titles := make([]string, len(s.Path))
	for i, doc := range s.Path {
		titles[i] = title(doc)
	}
	b.WriteString(strings.Join(titles, " → "))
	b.WriteString("\n")
	return b.String()
}

func (m *model) completeView() string {
	rendered, err := renderMarkdown(summaryMarkdown(m.snap, m.title), m.width)
	if err != nil {
		rendered = summaryMarkdown(m.snap, m.title)
	}
	var b strings.Builder
	b.WriteString(rendered)
	if m.submitted != nil {
		fmt.Fprintf(&b, "\n  Ranked #%d on the leaderboard as %s.\n", m.submitted.Rank, m.submitted.Nickname)
		return b.String()
	}
	b.WriteString("\n  Enter a nickname for the leaderboard:\n\n")
	b.WriteString("  " + m.nickname.View() + "\n")
	return b.String()
}

func (m model) handleCompleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.nickname.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			e, err := leaderboard.FromSnapshot(m.nickname.Value(), m.snap)
			if err != nil {
				m.notice = err.Error()
				return m, nil
			}
			m.loading = true
			return m, m.submit(e)
		case tea.KeyEsc:
			m.nickname.Blur()
			m.refreshContent()
			return m, nil
		}
		var cmd tea.Cmd
		m.nickname, cmd = m.nickname.Update(msg)
		m.refreshContent()
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "n":
		return m.startGame()
	case "l":
		return m, m.loadLeaderboard()
	case "esc":
		m.engine.ReturnToMenu()
		return m.enterMenu()
	case "enter":
		if m.submitted == nil {
			m.nickname.Focus()
			m.refreshContent()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) submit(e leaderboard.Entry) tea.Cmd {
	board := m.board
	return func() tea.Msg {
		saved, err := board.Submit(context.Background(), e)
		return submittedMsg{entry: saved, err: err}
	}
}

func (m model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.notice = msg.err.Error()
		m.log.Info("leaderboard submission rejected", "err", msg.err)
		return m, nil
	}
	m.notice = ""
	m.submitted = msg.entry
	m.nickname.Blur()
	if m.prefs != nil && m.prefs.Nickname != msg.entry.Nickname {
		m.prefs.Nickname = msg.entry.Nickname
		if err := m.prefs.Save(); err != nil {
			m.log.Warn("save settings", "err", err)
		}
	}
	m.refreshContent()
	return m, nil
}

// Leaderboard.

func (m model) loadLeaderboard() tea.Cmd {
	board := m.board
	return func() tea.Msg {
		entries, err := board.List(context.Background(), leaderboard.Capacity)
		return leaderboardMsg{entries: entries, err: err}
	}
}

func (m model) handleLeaderboard(msg leaderboardMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = msg.err.Error()
		return m, nil
	}
	m.notice = ""
	m.entries = msg.entries
	m.cursor = 0
	m.screen = screenLeaderboard
	m.refreshContent()
	m.viewport.GotoTop()
	return m, nil
}

func renderLeaderboard(entries []leaderboard.Entry, selectedIdx int) string {
	if len(entries) == 0 {
		return "\n  No races recorded yet.\n"
	}
	var b strings.Builder
	b.WriteString("\n")
	for i, e := range entries {
		cursor := "  "
		if i == selectedIdx {
			cursor = "> "
		}
		fmt.Fprintf(&b, "%s%2d. %-20s %4d  %s  %2d moves  %s → %s\n",
			cursor, e.Rank, e.Nickname, e.Score, game.Grade(e.Score), e.Moves, e.StartTitle, e.GoalTitle)
	}
	return b.String()
}

func (m model) handleLeaderboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		if m.snap.Status == game.StatusFinished {
			m.screen = screenComplete
			m.refreshContent()
			return m, nil
		}
		return m.enterMenu()
	case "j", "down":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
			m.refreshContent()
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.refreshContent()
		}
		return m, nil
	case "enter":
		if m.cursor < 0 || m.cursor >= len(m.entries) {
			return m, nil
		}
		replay, err := leaderboard.Replay(m.entries[m.cursor])
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		md := replay.Markdown()
		rendered, err := renderMarkdown(md, m.width)
		if err != nil {
			rendered = md
		}
		m.replay = rendered
		m.screen = screenReplay
		m.refreshContent()
		m.viewport.GotoTop()
		return m, nil
	}
	return m, nil
}
