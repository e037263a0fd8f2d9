package main

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/latebit/wikirace/internal/branch"
	"github.com/latebit/wikirace/internal/game"
)

// historyItem is a flattened branch node for display in the tree view.
type historyItem struct {
	ref     branch.Ref
	doc     string
	title   string
	color   string
	depth   int
	onPath  bool
	current bool
}

// lastVisit reports whether ref is the latest position of doc on the
// active path, which is where JumpToNode lands. Earlier visits of a
// revisited document can only be reached by forking.
func lastVisit(s game.Snapshot, ref branch.Ref, doc string) bool {
	i := slices.Index(s.PathRefs, ref)
	return i >= 0 && !slices.Contains(s.Path[i+1:], doc)
}

// flattenHistory lays the branch forest out as a tree. Every node of a
// branch is listed in order, and branches forked from a node follow it,
// indented one level deeper.
func flattenHistory(s game.Snapshot, title func(doc string) string) []historyItem {
	if len(s.Branches) == 0 {
		return nil
	}
	children := make(map[branch.Ref][]branch.Branch)
	for _, b := range s.Branches {
		if b.ParentID != branch.NoParent {
			at := branch.Ref{Branch: b.ParentID, Index: b.ParentIndex}
			children[at] = append(children[at], b)
		}
	}
	var current branch.Ref
	if len(s.PathRefs) > 0 {
		current = s.PathRefs[len(s.PathRefs)-1]
	}

	var items []historyItem
	var walk func(b branch.Branch, depth int)
	walk = func(b branch.Branch, depth int) {
		for i, doc := range b.Nodes {
			ref := branch.Ref{Branch: b.ID, Index: i}
			items = append(items, historyItem{
				ref:     ref,
				doc:     doc,
				title:   title(doc),
				color:   b.Color,
				depth:   depth,
				onPath:  slices.Contains(s.PathRefs, ref),
				current: ref == current,
			})
			for _, c := range children[ref] {
				walk(c, depth+1)
			}
		}
	}
	for _, b := range s.Branches {
		if b.ParentID == branch.NoParent {
			walk(b, 0)
		}
	}
	return items
}

// renderHistoryView renders the tree list as a string for the viewport.
func renderHistoryView(items []historyItem, selectedIdx, width int) string {
	if len(items) == 0 {
		return "\n  No history yet.\n"
	}

	var b strings.Builder
	b.WriteString("\n  History\n\n")

	for i, item := range items {
		label := item.title
		if label == "" {
			label = item.doc
		}

		indent := strings.Repeat("    ", item.depth)
		connector := ""
		if item.depth > 0 {
			connector = "├─ "
		}

		cursor := "  "
		if i == selectedIdx {
			cursor = "> "
		}

		prefix := cursor + indent + connector
		suffix := "  " + item.ref.String()
		// Truncate the label only, so the colored icon stays intact.
		if avail := width - 4 - lipgloss.Width(prefix) - len(suffix); avail > 3 && lipgloss.Width(label) > avail {
			label = truncate(label, avail-3) + "..."
		}
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color(item.color)).Render(nodeIcon(item))
		line := fmt.Sprintf("%s%s %s%s", prefix, icon, label, suffix)

		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString("\n  [Enter] go there  [f] fork here  [esc] back to page\n")
	return b.String()
}

func nodeIcon(item historyItem) string {
	switch {
	case item.current:
		return "◆"
	case item.onPath:
		return "●"
	default:
		return "○"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// handleHistoryKey processes key events when the history view is active.
// Nodes on the current path are reached by jumping back; any other node
// starts a new branch.
func (m model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "h", "esc":
		m.screen = screenPlay
		m.refreshContent()
		return m, nil
	case "j", "down":
		if m.cursor < len(m.history)-1 {
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
	case "enter", "f":
		if m.cursor < 0 || m.cursor >= len(m.history) {
			return m, nil
		}
		item := m.history[m.cursor]
		var err error
		switch {
		case msg.String() == "enter" && item.current:
			m.screen = screenPlay
			m.refreshContent()
			return m, nil
		case msg.String() == "enter" && item.onPath && lastVisit(m.snap, item.ref, item.doc):
			err = m.engine.JumpToNode(item.doc)
		default:
			err = m.engine.BranchFromHistory(item.ref.Branch, item.ref.Index)
		}
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		return m.afterMove()
	}
	return m, nil
}
