package branch

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCorrupt reports a forest that breaks the branch invariants.
var ErrCorrupt = errors.New("corrupt branch forest")

type segment struct {
	id  ID
	end int
}

// Reconstruct rebuilds the path from the root to node index of branch id by
// walking parents only. The duplicated first node of every non-root branch
// is skipped. It returns the document ids and their coordinates.
//
// A dangling parent, an ancestor cycle or an out-of-range coordinate means
// the forest was corrupted by the caller, and Reconstruct panics. Use
// Validate first on forests that come from outside the process.
func Reconstruct(branches []Branch, id ID, index int) ([]string, []Ref) {
	var segs []segment
	cur, end := id, index
	for {
		if len(segs) > len(branches) {
			panic(fmt.Errorf("%w: ancestor cycle through branch %d", ErrCorrupt, cur))
		}
		b, ok := find(branches, cur)
		if !ok {
			panic(fmt.Errorf("%w: branch %d does not exist", ErrCorrupt, cur))
		}
		if end < 0 || end >= len(b.Nodes) {
			panic(fmt.Errorf("%w: index %d outside branch %d (len %d)", ErrCorrupt, end, cur, len(b.Nodes)))
		}
		segs = append(segs, segment{id: cur, end: end})
		if b.ParentID == NoParent {
			break
		}
		cur, end = b.ParentID, b.ParentIndex
	}
	slices.Reverse(segs)

	var docs []string
	var refs []Ref
	for i, seg := range segs {
		b, _ := find(branches, seg.id)
		start := 0
		if i > 0 {
			start = 1
		}
		for j := start; j <= seg.end; j++ {
			docs = append(docs, b.Nodes[j])
			refs = append(refs, Ref{Branch: seg.id, Index: j})
		}
	}
	return docs, refs
}

// Validate checks that branches form a well-shaped forest: dense ids in
// creation order, a single root at id 0, parents created before their
// children, in-range fork points and fork nodes duplicating their parent
// node.
func Validate(branches []Branch) error {
	if len(branches) == 0 {
		return fmt.Errorf("%w: no root branch", ErrCorrupt)
	}
	for i, b := range branches {
		if b.ID != ID(i) {
			return fmt.Errorf("%w: branch at position %d has id %d", ErrCorrupt, i, b.ID)
		}
		if len(b.Nodes) == 0 {
			return fmt.Errorf("%w: branch %d is empty", ErrCorrupt, b.ID)
		}
		if len(b.Orders) != 0 && len(b.Orders) != len(b.Nodes) {
			return fmt.Errorf("%w: branch %d has %d orders for %d nodes", ErrCorrupt, b.ID, len(b.Orders), len(b.Nodes))
		}
		if i == 0 {
			if b.ParentID != NoParent || b.ParentIndex != 0 {
				return fmt.Errorf("%w: root branch has parent %d:%d", ErrCorrupt, b.ParentID, b.ParentIndex)
			}
			continue
		}
		if b.ParentID < 0 || b.ParentID >= b.ID {
			return fmt.Errorf("%w: branch %d has parent %d", ErrCorrupt, b.ID, b.ParentID)
		}
		p := branches[b.ParentID]
		if b.ParentIndex < 0 || b.ParentIndex >= len(p.Nodes) {
			return fmt.Errorf("%w: branch %d forks at %d:%d outside parent", ErrCorrupt, b.ID, b.ParentID, b.ParentIndex)
		}
		if p.Nodes[b.ParentIndex] != b.Nodes[0] {
			return fmt.Errorf("%w: branch %d starts with %q, parent node is %q", ErrCorrupt, b.ID, b.Nodes[0], p.Nodes[b.ParentIndex])
		}
	}
	return nil
}

func find(branches []Branch, id ID) (Branch, bool) {
	if id >= 0 && int(id) < len(branches) && branches[id].ID == id {
		return branches[id], true
	}
	for _, b := range branches {
		if b.ID == id {
			return b, true
		}
	}
	return Branch{}, false
}
