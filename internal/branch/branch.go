// Package branch records every document a player has visited as a forest of
// append-only branches. A branch is a linear run of document ids; every
// branch except the root starts with a copy of the node it forked from.
package branch

import (
	"errors"
	"fmt"
)

// ID identifies a branch. IDs are dense and assigned in creation order.
type ID int

// NoParent is the ParentID of the root branch.
const NoParent ID = -1

var (
	ErrRootExists       = errors.New("root branch already exists")
	ErrInvalidBranch    = errors.New("invalid branch")
	ErrInvalidForkPoint = errors.New("invalid fork point")
)

// palette holds the display colors cycled through as branches are created.
var palette = []string{
	"#8B5CF6", "#3B82F6", "#F472B6", "#60A5FA",
	"#A5B4FC", "#7DD3FC", "#F9A8D4", "#93C5FD",
}

// Branch is one linear run of visited documents.
type Branch struct {
	ID          ID       `json:"id"`
	ParentID    ID       `json:"parent_id"`
	ParentIndex int      `json:"parent_index"`
	Nodes       []string `json:"nodes"`
	// Orders[i] is the move count at which Nodes[i] was recorded.
	Orders []int  `json:"orders"`
	Color  string `json:"color"`
}

// Ref addresses a single node: index Index inside branch Branch.
type Ref struct {
	Branch ID  `json:"branch"`
	Index  int `json:"index"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%d:%d", r.Branch, r.Index)
}

// Tail returns the index of the last node in the branch.
func (b Branch) Tail() int {
	return len(b.Nodes) - 1
}

func (b Branch) clone() Branch {
	b.Nodes = append([]string(nil), b.Nodes...)
	b.Orders = append([]int(nil), b.Orders...)
	return b
}

// Store is an arena of branches. Nodes are never rewritten or removed.
// A Store is not safe for concurrent use; callers serialize access.
type Store struct {
	branches []Branch
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// CreateRoot creates the root branch holding only startDoc.
func (s *Store) CreateRoot(startDoc string) (ID, error) {
	if len(s.branches) > 0 {
		return 0, ErrRootExists
	}
	s.branches = append(s.branches, Branch{
		ID:       0,
		ParentID: NoParent,
		Nodes:    []string{startDoc},
		Orders:   []int{0},
		Color:    palette[0],
	})
	return 0, nil
}

// Append adds doc to the end of branch id and returns its index.
func (s *Store) Append(id ID, doc string, order int) (int, error) {
	b, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	b.Nodes = append(b.Nodes, doc)
	b.Orders = append(b.Orders, order)
	return len(b.Nodes) - 1, nil
}

// Fork creates a new branch whose first node is doc, attached to node
// parentIndex of branch parent. doc must equal the node it forks from.
func (s *Store) Fork(parent ID, parentIndex int, doc string, order int) (ID, error) {
	p, err := s.lookup(parent)
	if err != nil {
		return 0, err
	}
	if parentIndex < 0 || parentIndex >= len(p.Nodes) {
		return 0, fmt.Errorf("%w: index %d outside branch %d (len %d)", ErrInvalidForkPoint, parentIndex, parent, len(p.Nodes))
	}
	if p.Nodes[parentIndex] != doc {
		return 0, fmt.Errorf("%w: %q does not match %q at %d:%d", ErrInvalidForkPoint, doc, p.Nodes[parentIndex], parent, parentIndex)
	}

	id := ID(len(s.branches))
	s.branches = append(s.branches, Branch{
		ID:          id,
		ParentID:    parent,
		ParentIndex: parentIndex,
		Nodes:       []string{doc},
		Orders:      []int{order},
		Color:       palette[int(id)%len(palette)],
	})
	return id, nil
}

// Node returns the document stored at ref.
func (s *Store) Node(ref Ref) (string, bool) {
	b, err := s.lookup(ref.Branch)
	if err != nil || ref.Index < 0 || ref.Index >= len(b.Nodes) {
		return "", false
	}
	return b.Nodes[ref.Index], true
}

// IsTail reports whether ref addresses the last node of its branch.
func (s *Store) IsTail(ref Ref) bool {
	b, err := s.lookup(ref.Branch)
	return err == nil && ref.Index == b.Tail()
}

// Len returns the number of branches.
func (s *Store) Len() int {
	return len(s.branches)
}

// Branches returns a deep copy of every branch in creation order.
func (s *Store) Branches() []Branch {
	out := make([]Branch, len(s.branches))
	for i, b := range s.branches {
		out[i] = b.clone()
	}
	return out
}

// Reconstruct returns the ancestral path ending at (id, index).
func (s *Store) Reconstruct(id ID, index int) ([]string, []Ref) {
	return Reconstruct(s.branches, id, index)
}

func (s *Store) lookup(id ID) (*Branch, error) {
	if id < 0 || int(id) >= len(s.branches) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBranch, id)
	}
	return &s.branches[id], nil
}
