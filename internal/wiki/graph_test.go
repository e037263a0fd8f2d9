package wiki

import (
	"slices"
	"testing"
)

func testGraph() *Graph {
	g := NewGraph()
	g.AddDocument(Document{ID: "a", Title: "A", Links: []string{"b", "c"}})
	g.AddDocument(Document{ID: "b", Title: "B", Links: []string{"d"}})
	g.AddDocument(Document{ID: "c", Title: "C", Links: []string{"d", "a"}})
	g.AddDocument(Document{ID: "d", Title: "D"})
	g.AddDocument(Document{ID: "island", Title: "Island"})
	return g
}

func TestNewGraph(t *testing.T) {
	g := NewGraph()
	if g.Len() != 0 {
		t.Errorf("Len() = %d, want 0", g.Len())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
}

func TestAddDocumentCollapsesRepeatedLinks(t *testing.T) {
	g := NewGraph()
	g.AddDocument(Document{ID: "a", Links: []string{"b", "c", "b"}})
	d, ok := g.Document("a")
	if !ok {
		t.Fatal("document not found")
	}
	if !slices.Equal(d.Links, []string{"b", "c"}) {
		t.Errorf("Links = %v, want [b c]", d.Links)
	}
}

func TestAddDocumentReplaces(t *testing.T) {
	g := NewGraph()
	g.AddDocument(Document{ID: "a", Title: "Old"})
	g.AddDocument(Document{ID: "a", Title: "New"})
	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}
	if d, _ := g.Document("a"); d.Title != "New" {
		t.Errorf("Title = %q, want New", d.Title)
	}
}

func TestDocumentNotFound(t *testing.T) {
	if _, ok := testGraph().Document("nope"); ok {
		t.Error("expected missing document")
	}
}

func TestDocumentIsCopy(t *testing.T) {
	g := testGraph()
	d, _ := g.Document("a")
	d.Links[0] = "zzz"
	if again, _ := g.Document("a"); again.Links[0] != "b" {
		t.Errorf("graph mutated through copy: %v", again.Links)
	}
}

func TestLinks(t *testing.T) {
	g := testGraph()
	var titles []string
	for _, d := range g.Links("c") {
		titles = append(titles, d.Title)
	}
	if !slices.Equal(titles, []string{"D", "A"}) {
		t.Errorf("Links(c) = %v, want [D A]", titles)
	}
	if got := g.Links("d"); len(got) != 0 {
		t.Errorf("Links(d) = %v, want none", got)
	}
}

func TestHasLink(t *testing.T) {
	g := testGraph()
	if !g.HasLink("a", "b") {
		t.Error("a should link to b")
	}
	if g.HasLink("b", "a") {
		t.Error("b should not link to a")
	}
	if g.HasLink("nope", "a") {
		t.Error("missing document should have no links")
	}
}

func TestIDsSorted(t *testing.T) {
	want := []string{"a", "b", "c", "d", "island"}
	if got := testGraph().IDs(); !slices.Equal(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
}

func TestEdgeCount(t *testing.T) {
	if got := testGraph().EdgeCount(); got != 5 {
		t.Errorf("EdgeCount() = %d, want 5", got)
	}
}

func TestPrune(t *testing.T) {
	g := NewGraph()
	g.AddDocument(Document{ID: "a", Links: []string{"b", "ghost", "c"}})
	g.AddDocument(Document{ID: "b", Links: []string{"phantom"}})
	g.AddDocument(Document{ID: "c"})

	dropped := g.Prune()
	want := []Edge{{From: "a", To: "ghost"}, {From: "b", To: "phantom"}}
	if !slices.Equal(dropped, want) {
		t.Errorf("Prune() = %v, want %v", dropped, want)
	}
	if d, _ := g.Document("a"); !slices.Equal(d.Links, []string{"b", "c"}) {
		t.Errorf("a.Links = %v, want [b c]", d.Links)
	}
}

func TestShortestPath(t *testing.T) {
	g := testGraph()
	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{"self", "a", "a", []string{"a"}},
		{"direct", "a", "b", []string{"a", "b"}},
		{"two hops", "a", "d", []string{"a", "b", "d"}},
		{"through cycle", "c", "b", []string{"c", "a", "b"}},
		{"unreachable", "a", "island", nil},
		{"unknown start", "nope", "a", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ShortestPath(tt.from, tt.to); !slices.Equal(got, tt.want) {
				t.Errorf("ShortestPath(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
