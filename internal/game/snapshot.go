package game

import (
	"slices"
	"time"

	"github.com/latebit/wikirace/internal/branch"
	"github.com/latebit/wikirace/internal/wiki"
)

// Snapshot is a consistent, deep-copied view of the engine state.
type Snapshot struct {
	Status   Status        `json:"status"`
	Settings Settings      `json:"settings"`
	Pending  bool          `json:"pending"`
	Scenario wiki.Scenario `json:"scenario"`

	StartTitle string          `json:"start_title,omitempty"`
	GoalTitle  string          `json:"goal_title,omitempty"`
	Current    wiki.Document   `json:"current"`
	Links      []wiki.Document `json:"links,omitempty"`

	Path         []string        `json:"path,omitempty"`
	PathRefs     []branch.Ref    `json:"path_refs,omitempty"`
	Branches     []branch.Branch `json:"branches,omitempty"`
	ActiveBranch branch.ID       `json:"active_branch"`

	Moves     int       `json:"moves"`
	Par       int       `json:"par"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Score     int       `json:"score"`

	// AllowBacktracking is the setting the current game was started with.
	AllowBacktracking bool `json:"allow_backtracking"`
}

// Elapsed returns the time spent in the game: up to now while playing,
// up to the finish once finished.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	switch s.Status {
	case StatusPlaying:
		return now.Sub(s.StartTime)
	case StatusFinished:
		return s.EndTime.Sub(s.StartTime)
	}
	return 0
}

// ElapsedSeconds is Elapsed in whole seconds.
func (s Snapshot) ElapsedSeconds(now time.Time) int {
	return int(max(s.Elapsed(now), 0) / time.Second)
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		Status:            e.status,
		Settings:          e.settings,
		Pending:           e.pending,
		AllowBacktracking: e.settings.AllowBacktracking,
	}
	r := e.round
	if r == nil {
		return s
	}

	s.Scenario = r.scenario
	s.StartTitle = r.startTitle
	s.GoalTitle = r.goalTitle
	s.AllowBacktracking = r.allowBacktracking
	s.Current, _ = e.src.Document(r.current())
	s.Links = e.src.Links(r.current())

	s.PathRefs = slices.Clone(r.path)
	s.Path = make([]string, len(r.path))
	for i, ref := range r.path {
		s.Path[i], _ = r.branches.Node(ref)
	}
	s.Branches = r.branches.Branches()
	s.ActiveBranch = r.active

	s.Moves = r.moves
	s.Par = r.par
	s.StartTime = r.startTime
	s.EndTime = r.endTime
	s.Score = r.score
	return s
}
