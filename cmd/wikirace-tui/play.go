package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/latebit/wikirace/internal/game"
)

// visibleSteps is how many documents before the current one the
// breadcrumb shows.
const visibleSteps = 3

const ellipsis = "…"

// navigatedMsg is sent when a delayed navigation completes.
type navigatedMsg struct {
	target string
	err    error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// breadcrumb returns the labels shown above the page: the start, an
// ellipsis when steps are hidden, the last few steps, the current
// document and, while it has not been reached, the goal.
func breadcrumb(s game.Snapshot, title func(doc string) string) []string {
	n := len(s.Path)
	if n == 0 {
		return nil
	}
	parts := []string{title(s.Path[0])}
	if n > 1 {
		middle := s.Path[1 : n-1]
		if len(middle) > visibleSteps {
			parts = append(parts, ellipsis)
			middle = middle[len(middle)-visibleSteps:]
		}
		for _, doc := range middle {
			parts = append(parts, title(doc))
		}
		parts = append(parts, title(s.Path[n-1]))
	}
	if s.Path[n-1] != s.Scenario.Goal {
		parts = append(parts, ellipsis, title(s.Scenario.Goal))
	}
	return parts
}

func formatDuration(d time.Duration) string {
	secs := int(max(d, 0) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// navigate asks the engine to follow a link after the configured delay.
func (m model) navigate(target string) tea.Cmd {
	engine, delay := m.engine, m.navDelay
	return func() tea.Msg {
		err := engine.NavigateAfter(context.Background(), target, delay)
		return navigatedMsg{target: target, err: err}
	}
}

func (m model) handleNavigated(msg navigatedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		if !errors.Is(msg.err, game.ErrNavigationAbandoned) {
			m.notice = msg.err.Error()
		}
		m.log.Debug("navigation rejected", "target", msg.target, "err", msg.err)
		return m, nil
	}
	m.notice = ""
	return m.afterMove()
}

// afterMove refreshes the view after the engine state changed and switches
// to the completion screen once the goal is reached.
func (m model) afterMove() (tea.Model, tea.Cmd) {
	m.snap = m.engine.Snapshot()
	m.cursor = 0
	if m.snap.Status == game.StatusFinished {
		return m.enterComplete()
	}
	m.screen = screenPlay
	m.refreshContent()
	m.viewport.GotoTop()
	return m, nil
}

// handlePlayKey processes key events on the page being read.
func (m model) handlePlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "esc":
		m.engine.ReturnToMenu()
		m.loading = false
		return m.enterMenu()
	case "j", "down", "tab":
		if m.cursor < len(m.snap.Links)-1 {
			m.cursor++
			m.refreshContent()
		}
		return m, nil
	case "k", "up", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
			m.refreshContent()
		}
		return m, nil
	case "enter":
		return m.follow(m.cursor)
	case "b", "backspace":
		if err := m.engine.GoBack(); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		return m.afterMove()
	case "h":
		if !m.snap.AllowBacktracking {
			m.notice = game.ErrBacktrackingDisabled.Error()
			return m, nil
		}
		m.screen = screenHistory
		m.history = flattenHistory(m.snap, m.title)
		m.cursor = len(m.history) - 1
		for i, item := range m.history {
			if item.current {
				m.cursor = i
			}
		}
		m.refreshContent()
		return m, nil
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 9 {
		return m.follow(n - 1)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) follow(i int) (tea.Model, tea.Cmd) {
	if m.loading || i < 0 || i >= len(m.snap.Links) {
		return m, nil
	}
	m.loading = true
	m.cursor = i
	m.notice = ""
	return m, m.navigate(m.snap.Links[i].ID)
}

// renderPage returns the viewport content for the play screen: the
// rendered document followed by the numbered list of links.
func (m *model) renderPage() string {
	doc := m.snap.Current
	if m.renderedID != doc.ID || m.renderedWidth != m.width {
		rendered, err := renderMarkdown(doc.Content, m.width)
		if err != nil {
			rendered = doc.Content
		}
		m.renderedPage = rendered
		m.renderedID = doc.ID
		m.renderedWidth = m.width
	}

	var b strings.Builder
	b.WriteString(m.renderedPage)
	b.WriteString("\n  Links\n\n")
	if len(m.snap.Links) == 0 {
		b.WriteString("  This page links nowhere.")
		if m.snap.AllowBacktracking {
			b.WriteString(" Press [b] to go back.")
		}
		b.WriteString("\n")
	}
	goal := m.snap.Scenario.Goal
	for i, l := range m.snap.Links {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		label := l.Title
		if l.ID == goal {
			label = goalStyle.Render(label + " ★")
		}
		num := "  "
		if i < 9 {
			num = fmt.Sprintf("%d.", i+1)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, num, label)
	}
	return b.String()
}

func (m model) playHeader() string {
	crumbs := breadcrumb(m.snap, m.title)
	if n := len(m.snap.Path); n > 0 {
		// The current document is the last crumb before the goal suffix.
		idx := len(crumbs) - 1
		if m.snap.Path[n-1] != m.snap.Scenario.Goal {
			idx = len(crumbs) - 3
		}
		crumbs[idx] = currentStyle.Render(crumbs[idx])
	}
	line := strings.Join(crumbs, " → ")

	parts := []string{
		"⏱ " + formatDuration(m.snap.Elapsed(m.clock.Now())),
		fmt.Sprintf("moves %d", m.snap.Moves),
	}
	if m.snap.Par >= 0 {
		parts = append(parts, fmt.Sprintf("par %d", m.snap.Par))
	}
	if !m.snap.AllowBacktracking {
		parts = append(parts, "no backtracking")
	}
	stats := strings.Join(parts, "  ")
	return lipgloss.NewStyle().Padding(0, 1).Width(m.width).Render(line) + "\n" +
		lipgloss.NewStyle().Padding(0, 1).Width(m.width).Faint(true).Render(stats)
}
