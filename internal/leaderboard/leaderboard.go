// Package leaderboard keeps the best finished games in a local SQLite file.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/latebit/wikirace/internal/branch"
	"github.com/latebit/wikirace/internal/game"
	"github.com/latebit/wikirace/internal/wiki"
)

// Capacity is the number of entries the leaderboard retains.
const Capacity = 10

// MaxNicknameLength bounds nicknames, counted in runes.
const MaxNicknameLength = 20

var (
	ErrNotFinished  = errors.New("game is not finished")
	ErrInvalidEntry = errors.New("invalid leaderboard entry")
	ErrDuplicate    = errors.New("entry already on the leaderboard")
	ErrNotRanked    = errors.New("score too low for the leaderboard")
	ErrNotFound     = errors.New("no entry at that rank")
)

// Entry is one finished game on the leaderboard.
type Entry struct {
	ID         string          `json:"id"`
	Rank       int             `json:"rank"`
	Nickname   string          `json:"nickname"`
	StartDoc   string          `json:"start_doc"`
	StartTitle string          `json:"start_title"`
	GoalDoc    string          `json:"goal_doc"`
	GoalTitle  string          `json:"goal_title"`
	Difficulty wiki.Difficulty `json:"difficulty"`
	Score      int             `json:"score"`
	Moves      int             `json:"moves"`
	Time       int             `json:"time"` // seconds
	Path       []string        `json:"path"`
	PathRefs   []branch.Ref    `json:"path_refs"`
	Branches   []branch.Branch `json:"branches"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Store is a top-N leaderboard.
type Store interface {
	// Submit records e. It fails with ErrDuplicate when the same nickname
	// already holds an entry with the same score and moves, and with
	// ErrNotRanked when e does not make the top Capacity.
	Submit(ctx context.Context, e Entry) (*Entry, error)
	// List returns up to limit entries in rank order.
	List(ctx context.Context, limit int) ([]Entry, error)
	// Get returns the entry at rank (1-based).
	Get(ctx context.Context, rank int) (*Entry, error)
	Close() error
}

// FromSnapshot builds an entry from a finished game.
func FromSnapshot(nickname string, s game.Snapshot) (Entry, error) {
	if s.Status != game.StatusFinished {
		return Entry{}, ErrNotFinished
	}
	e := Entry{
		Nickname:   strings.TrimSpace(nickname),
		StartDoc:   s.Scenario.Start,
		StartTitle: s.StartTitle,
		GoalDoc:    s.Scenario.Goal,
		GoalTitle:  s.GoalTitle,
		Difficulty: s.Scenario.Difficulty,
		Score:      s.Score,
		Moves:      s.Moves,
		Time:       s.ElapsedSeconds(s.EndTime),
		Path:       s.Path,
		PathRefs:   s.PathRefs,
		Branches:   s.Branches,
	}
	return e, e.validate()
}

func (e Entry) validate() error {
	if e.Nickname == "" {
		return fmt.Errorf("%w: nickname is empty", ErrInvalidEntry)
	}
	if utf8.RuneCountInString(e.Nickname) > MaxNicknameLength {
		return fmt.Errorf("%w: nickname longer than %d characters", ErrInvalidEntry, MaxNicknameLength)
	}
	if e.Score < 0 || e.Moves < 0 || e.Time < 0 {
		return fmt.Errorf("%w: negative score, moves or time", ErrInvalidEntry)
	}
	return nil
}
