package main

import (
	"strings"
	"testing"

	"github.com/latebit/wikirace/internal/branch"
	"github.com/latebit/wikirace/internal/game"
)

func upper(doc string) string { return strings.ToUpper(doc) }

func forestSnapshot() game.Snapshot {
	return game.Snapshot{
		Branches: []branch.Branch{
			{ID: 0, ParentID: branch.NoParent, Nodes: []string{"a", "b", "c"}, Color: "#8B5CF6"},
			{ID: 1, ParentID: 0, ParentIndex: 1, Nodes: []string{"b", "d"}, Color: "#3B82F6"},
			{ID: 2, ParentID: 0, ParentIndex: 0, Nodes: []string{"a", "e"}, Color: "#F472B6"},
		},
		PathRefs: []branch.Ref{{Branch: 0, Index: 0}, {Branch: 0, Index: 1}, {Branch: 1, Index: 1}},
		Path:     []string{"a", "b", "d"},
	}
}

func TestFlattenHistoryEmpty(t *testing.T) {
	if items := flattenHistory(game.Snapshot{}, upper); items != nil {
		t.Errorf("expected nil, got %d items", len(items))
	}
}

func TestFlattenHistoryTree(t *testing.T) {
	items := flattenHistory(forestSnapshot(), upper)

	want := []struct {
		ref     string
		depth   int
		onPath  bool
		current bool
	}{
		{"0:0", 0, true, false},
		{"2:0", 1, false, false},
		{"2:1", 1, false, false},
		{"0:1", 0, true, false},
		{"1:0", 1, false, false},
		{"1:1", 1, true, true},
		{"0:2", 0, false, false},
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, w := range want {
		it := items[i]
		if it.ref.String() != w.ref || it.depth != w.depth || it.onPath != w.onPath || it.current != w.current {
			t.Errorf("items[%d] = %+v, want %+v", i, it, w)
		}
	}
	if items[2].title != "E" || items[2].doc != "e" {
		t.Errorf("items[2] title %q doc %q", items[2].title, items[2].doc)
	}
}

func TestRenderHistoryViewEmpty(t *testing.T) {
	result := renderHistoryView(nil, 0, 80)
	if !strings.Contains(result, "No history") {
		t.Errorf("expected empty message, got %q", result)
	}
}

func TestRenderHistoryViewCursor(t *testing.T) {
	items := flattenHistory(forestSnapshot(), upper)
	result := renderHistoryView(items, 3, 80)

	found := false
	for _, line := range strings.Split(result, "\n") {
		if strings.HasPrefix(line, "> ") && strings.Contains(line, "B  0:1") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected cursor on B, output:\n%s", result)
	}
}

func TestRenderHistoryViewIcons(t *testing.T) {
	result := renderHistoryView(flattenHistory(forestSnapshot(), upper), 0, 80)
	for _, icon := range []string{"◆", "●", "○"} {
		if !strings.Contains(result, icon) {
			t.Errorf("expected %s in output:\n%s", icon, result)
		}
	}
}

func TestRenderHistoryViewTruncates(t *testing.T) {
	items := []historyItem{{ref: branch.Ref{}, doc: "x", title: strings.Repeat("long title ", 10), current: true}}
	result := renderHistoryView(items, 0, 40)
	if !strings.Contains(result, "...  0:0") {
		t.Errorf("expected truncated title, output:\n%s", result)
	}
}
