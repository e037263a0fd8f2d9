package leaderboard

import (
	"fmt"
	"strings"

	"github.com/latebit/wikirace/internal/branch"
	"github.com/latebit/wikirace/internal/game"
)

// StepKind classifies how the player reached a step of the final path.
type StepKind string

const (
	StepStart   StepKind = "start"
	StepForward StepKind = "forward" // followed a link
	StepBranch  StepKind = "branch"  // resumed from an earlier point in history
)

// Step is one position on the final path of a recorded game.
type Step struct {
	Doc   string     `json:"doc"`
	Ref   branch.Ref `json:"ref"`
	Kind  StepKind   `json:"kind"`
	Order int        `json:"order"` // move count when the node was recorded
}

// ReplayLog is a recorded game re-derived from its branch forest.
type ReplayLog struct {
	Entry             Entry   `json:"entry"`
	Steps             []Step  `json:"steps"`
	Forks             int     `json:"forks"` // branches beyond the root
	AvgSecondsPerMove float64 `json:"avg_seconds_per_move"`
	Grade             string  `json:"grade"`
	Efficiency        string  `json:"efficiency"`
}

// Replay checks the stored forest of e and walks its final path. Entries
// come from disk, so a forest that breaks the branch invariants is
// reported as an error wrapping branch.ErrCorrupt.
func Replay(e Entry) (*ReplayLog, error) {
	if err := branch.Validate(e.Branches); err != nil {
		return nil, err
	}
	if len(e.PathRefs) == 0 {
		return nil, fmt.Errorf("%w: empty path", branch.ErrCorrupt)
	}
	if e.PathRefs[0] != (branch.Ref{Branch: 0, Index: 0}) {
		return nil, fmt.Errorf("%w: path starts at %s", branch.ErrCorrupt, e.PathRefs[0])
	}
	if len(e.Path) != 0 && len(e.Path) != len(e.PathRefs) {
		return nil, fmt.Errorf("%w: %d documents for %d path refs", branch.ErrCorrupt, len(e.Path), len(e.PathRefs))
	}

	log := &ReplayLog{
		Entry:      e,
		Forks:      len(e.Branches) - 1,
		Grade:      game.Grade(e.Score),
		Efficiency: game.Efficiency(e.Score),
	}
	if e.Moves > 0 {
		log.AvgSecondsPerMove = float64(e.Time) / float64(e.Moves)
	}

	for i, ref := range e.PathRefs {
		if int(ref.Branch) < 0 || int(ref.Branch) >= len(e.Branches) {
			return nil, fmt.Errorf("%w: step %d refers to branch %d", branch.ErrCorrupt, i, ref.Branch)
		}
		b := e.Branches[ref.Branch]
		if ref.Index < 0 || ref.Index >= len(b.Nodes) {
			return nil, fmt.Errorf("%w: step %d refers to %s", branch.ErrCorrupt, i, ref)
		}
		doc := b.Nodes[ref.Index]
		if len(e.Path) != 0 && e.Path[i] != doc {
			return nil, fmt.Errorf("%w: step %d is %q but %s holds %q", branch.ErrCorrupt, i, e.Path[i], ref, doc)
		}

		step := Step{Doc: doc, Ref: ref, Kind: StepForward}
		if ref.Index < len(b.Orders) {
			step.Order = b.Orders[ref.Index]
		}
		switch {
		case i == 0:
			step.Kind = StepStart
		case ref.Index == 0:
			step.Kind = StepBranch
		}
		log.Steps = append(log.Steps, step)
	}
	return log, nil
}

// Markdown renders the replay as a markdown document.
func (l *ReplayLog) Markdown() string {
	e := l.Entry
	var b strings.Builder
	fmt.Fprintf(&b, "# #%d %s\n\n", e.Rank, e.Nickname)
	fmt.Fprintf(&b, "**%s** → **%s** (%s)\n\n", e.StartTitle, e.GoalTitle, e.Difficulty)
	fmt.Fprintf(&b, "| score | grade | moves | time | avg/move | forks |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %s | %d | %ds | %.1fs | %d |\n\n", e.Score, l.Grade, e.Moves, e.Time, l.AvgSecondsPerMove, l.Forks)
	fmt.Fprintf(&b, "Efficiency: %s\n\n## Path\n\n", l.Efficiency)
	for i, s := range l.Steps {
		note := ""
		switch s.Kind {
		case StepStart:
			note = " (start)"
		case StepBranch:
			note = fmt.Sprintf(" (resumed on branch %d)", s.Ref.Branch)
		}
		fmt.Fprintf(&b, "%d. `%s` at move %d%s\n", i+1, s.Doc, s.Order, note)
	}
	return b.String()
}
