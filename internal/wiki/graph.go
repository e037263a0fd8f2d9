// Package wiki provides the document graph the game is played on: a set of
// markdown documents linked to each other, and the start/goal scenarios
// defined over them.
package wiki

import (
	"slices"
	"sort"
	"sync"
)

// Document is a single page of the pack.
type Document struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Links   []string `json:"links"` // outgoing document ids, in display order
	Content string   `json:"content"`
}

func (d Document) clone() Document {
	d.Links = slices.Clone(d.Links)
	return d
}

// Edge represents a directed link from one document to another.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a concurrency-safe set of documents keyed by id.
type Graph struct {
	docs map[string]Document
	mu   sync.RWMutex
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{docs: make(map[string]Document)}
}

// AddDocument adds or replaces a document. Repeated links are collapsed to
// their first occurrence.
func (g *Graph) AddDocument(d Document) {
	seen := make(map[string]bool, len(d.Links))
	links := make([]string, 0, len(d.Links))
	for _, l := range d.Links {
		if seen[l] {
			continue
		}
		seen[l] = true
		links = append(links, l)
	}
	d.Links = links

	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[d.ID] = d
}

// Document returns the document with the given id.
func (g *Graph) Document(id string) (Document, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.docs[id]
	if !ok {
		return Document{}, false
	}
	return d.clone(), true
}

// Links returns the documents id links to, in link order. Links to
// documents that are not in the graph are skipped.
func (g *Graph) Links(id string) []Document {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var result []Document
	for _, l := range g.docs[id].Links {
		if d, ok := g.docs[l]; ok {
			result = append(result, d.clone())
		}
	}
	return result
}

// HasLink reports whether from links directly to to.
func (g *Graph) HasLink(from, to string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Contains(g.docs[from].Links, to)
}

// IDs returns every document id in sorted order.
func (g *Graph) IDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.docs))
	for id := range g.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of documents in the graph.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.docs)
}

// EdgeCount returns the number of links between documents.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, d := range g.docs {
		n += len(d.Links)
	}
	return n
}

// Prune drops links whose target is not in the graph and returns them
// sorted by source.
func (g *Graph) Prune() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var dropped []Edge
	for id, d := range g.docs {
		kept := d.Links[:0:0]
		for _, l := range d.Links {
			if _, ok := g.docs[l]; ok {
				kept = append(kept, l)
			} else {
				dropped = append(dropped, Edge{From: id, To: l})
			}
		}
		d.Links = kept
		g.docs[id] = d
	}
	sort.Slice(dropped, func(i, j int) bool {
		if dropped[i].From != dropped[j].From {
			return dropped[i].From < dropped[j].From
		}
		return dropped[i].To < dropped[j].To
	})
	return dropped
}

// ShortestPath returns the shortest chain of links from one document to
// another, both ends included, or nil if to is unreachable.
func (g *Graph) ShortestPath(from, to string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.docs[from]; !ok {
		return nil
	}
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			var path []string
			for n := to; n != ""; n = prev[n] {
				path = append(path, n)
			}
			slices.Reverse(path)
			return path
		}
		for _, l := range g.docs[cur].Links {
			if _, seen := prev[l]; seen {
				continue
			}
			if _, ok := g.docs[l]; !ok {
				continue
			}
			prev[l] = cur
			queue = append(queue, l)
		}
	}
	return nil
}
