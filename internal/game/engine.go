// Package game implements the race itself: a player starts on one document
// and follows links until reaching the goal. Every move is recorded in a
// branch forest so abandoned routes stay visible and can be resumed.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/latebit/wikirace/internal/branch"
	"github.com/latebit/wikirace/internal/clock"
	"github.com/latebit/wikirace/internal/wiki"
)

// Status is the lifecycle state of the engine.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Operations that are not allowed in the current state fail with one of
// these errors and leave the state untouched. Front ends may ignore them.
var (
	ErrNotPlaying           = errors.New("no game in progress")
	ErrNavigationPending    = errors.New("navigation already in progress")
	ErrNavigationAbandoned  = errors.New("navigation abandoned")
	ErrLinkNotAvailable     = errors.New("document is not linked from the current page")
	ErrBacktrackingDisabled = errors.New("backtracking is disabled")
	ErrAtStart              = errors.New("already at the start document")
	ErrAlreadyCurrent       = errors.New("already on that document")
	ErrNotInPath            = errors.New("document is not on the current path")
	ErrInvalidForkPoint     = branch.ErrInvalidForkPoint
	ErrUnknownDocument      = errors.New("unknown document")
	ErrInvalidScenario      = errors.New("invalid scenario")
)

// Source supplies documents and scenarios. *wiki.Pack satisfies it.
type Source interface {
	Document(id string) (wiki.Document, bool)
	Links(id string) []wiki.Document
	HasLink(from, to string) bool
	RandomScenario(r *rand.Rand, d wiki.Difficulty) (wiki.Scenario, error)
	Par(s wiki.Scenario) int
}

// Settings are session preferences. They survive returning to the menu and
// are copied into each game when it starts.
type Settings struct {
	AllowBacktracking bool            `json:"allow_backtracking"`
	Difficulty        wiki.Difficulty `json:"difficulty"`
}

// DefaultSettings allows backtracking on scenarios of any difficulty.
func DefaultSettings() Settings {
	return Settings{AllowBacktracking: true}
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Clock    clock.Clock
	Logger   *slog.Logger
	Rand     *rand.Rand
	Settings *Settings      // nil: DefaultSettings
	OnFinish func(Snapshot) // called once per finished game, outside the engine lock
}

func (o *Options) applyDefaults() {
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.Settings == nil {
		s := DefaultSettings()
		o.Settings = &s
	}
}

// round holds the state of one game.
type round struct {
	scenario   wiki.Scenario
	startTitle string
	goalTitle  string
	par        int

	branches *branch.Store
	active   branch.ID
	path     []branch.Ref
	moves    int

	startTime time.Time
	endTime   time.Time
	score     int

	allowBacktracking bool
}

func (r *round) last() branch.Ref {
	return r.path[len(r.path)-1]
}

func (r *round) current() string {
	d, _ := r.branches.Node(r.last())
	return d
}

// Engine is the navigation state machine. All methods are safe for
// concurrent use; mutations are serialized and at most one delayed
// navigation may be in flight.
type Engine struct {
	src      Source
	clock    clock.Clock
	log      *slog.Logger
	rand     *rand.Rand
	onFinish func(Snapshot)

	mu         sync.Mutex
	settings   Settings
	status     Status
	round      *round
	pending    bool
	generation uint64
}

// New creates an idle engine playing on src.
func New(src Source, opts Options) *Engine {
	opts.applyDefaults()
	return &Engine{
		src:      src,
		clock:    opts.Clock,
		log:      opts.Logger,
		rand:     opts.Rand,
		onFinish: opts.OnFinish,
		settings: *opts.Settings,
		status:   StatusIdle,
	}
}

// Settings returns the session settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetAllowBacktracking changes whether the next game permits going back,
// jumping and branching. A game in progress keeps its own setting.
func (e *Engine) SetAllowBacktracking(allow bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.AllowBacktracking = allow
}

// SetDifficulty selects the difficulty of the next random scenario.
func (e *Engine) SetDifficulty(d wiki.Difficulty) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Difficulty = d
}

// StartGame starts a random scenario of the configured difficulty. It may
// be called in any state and replaces the current game.
func (e *Engine) StartGame() error {
	e.mu.Lock()
	s, err := e.src.RandomScenario(e.rand, e.settings.Difficulty)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	return e.StartScenario(s)
}

// StartScenario starts the given scenario, replacing the current game.
func (e *Engine) StartScenario(s wiki.Scenario) error {
	start, ok := e.src.Document(s.Start)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDocument, s.Start)
	}
	goal, ok := e.src.Document(s.Goal)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDocument, s.Goal)
	}
	if s.Start == s.Goal {
		return fmt.Errorf("%w: start and goal are both %q", ErrInvalidScenario, s.Start)
	}
	par := e.src.Par(s)

	store := branch.NewStore()
	root, err := store.CreateRoot(s.Start)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.pending = false
	e.round = &round{
		scenario:          s,
		startTitle:        start.Title,
		goalTitle:         goal.Title,
		par:               par,
		branches:          store,
		active:            root,
		path:              []branch.Ref{{Branch: root, Index: 0}},
		startTime:         e.clock.Now(),
		allowBacktracking: e.settings.AllowBacktracking,
	}
	e.status = StatusPlaying
	e.log.Info("game started", "start", s.Start, "goal", s.Goal, "difficulty", s.Difficulty.String(), "par", par)
	return nil
}

// ReturnToMenu abandons the current game. Session settings are kept.
func (e *Engine) ReturnToMenu() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.pending = false
	e.round = nil
	e.status = StatusIdle
	e.log.Debug("returned to menu")
}

// NavigateTo follows the link from the current document to target.
// Reaching the goal finishes the game.
func (e *Engine) NavigateTo(target string) error {
	return e.do("navigate", func(r *round) error {
		return e.navigate(r, target)
	})
}

// NavigateAfter validates the move, reserves the single navigation slot,
// waits for delay and then applies the move. Other mutations fail with
// ErrNavigationPending while it waits. Starting a new game or returning
// to the menu during the wait abandons the move.
func (e *Engine) NavigateAfter(ctx context.Context, target string, delay time.Duration) error {
	e.mu.Lock()
	if err := e.guardLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.checkLinkLocked(e.round, target); err != nil {
		e.mu.Unlock()
		return err
	}
	gen := e.generation
	e.pending = true
	wait := e.clock.After(delay)
	e.mu.Unlock()

	select {
	case <-wait:
	case <-ctx.Done():
		e.mu.Lock()
		if e.generation == gen {
			e.pending = false
		}
		e.mu.Unlock()
		return ctx.Err()
	}

	e.mu.Lock()
	if e.generation != gen || e.status != StatusPlaying {
		e.mu.Unlock()
		return ErrNavigationAbandoned
	}
	e.pending = false
	err := e.navigate(e.round, target)
	fin := e.settleLocked("navigate", err)
	e.mu.Unlock()
	e.notify(fin)
	return err
}

// GoBack steps back to the previous document on the active path. The
// abandoned document stays in the branch forest.
func (e *Engine) GoBack() error {
	return e.do("back", func(r *round) error {
		if !r.allowBacktracking {
			return ErrBacktrackingDisabled
		}
		if len(r.path) <= 1 {
			return ErrAtStart
		}
		r.path = r.path[:len(r.path)-1]
		r.active = r.last().Branch
		r.moves++
		return nil
	})
}

// JumpToNode truncates the active path after the most recent occurrence
// of doc.
func (e *Engine) JumpToNode(doc string) error {
	return e.do("jump", func(r *round) error {
		if !r.allowBacktracking {
			return ErrBacktrackingDisabled
		}
		if doc == r.current() {
			return ErrAlreadyCurrent
		}
		for i := len(r.path) - 2; i >= 0; i-- {
			if d, _ := r.branches.Node(r.path[i]); d == doc {
				r.path = r.path[:i+1]
				r.active = r.last().Branch
				r.moves++
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrNotInPath, doc)
	})
}

// BranchFromHistory forks a new branch at any recorded node and makes the
// path to it, followed by the new branch, the active path.
func (e *Engine) BranchFromHistory(id branch.ID, index int) error {
	return e.do("branch", func(r *round) error {
		if !r.allowBacktracking {
			return ErrBacktrackingDisabled
		}
		doc, ok := r.branches.Node(branch.Ref{Branch: id, Index: index})
		if !ok {
			return fmt.Errorf("%w: %d:%d", ErrInvalidForkPoint, id, index)
		}
		_, refs := r.branches.Reconstruct(id, index)
		forked, err := r.branches.Fork(id, index, doc, r.moves+1)
		if err != nil {
			return err
		}
		r.path = append(refs, branch.Ref{Branch: forked, Index: 0})
		r.active = forked
		r.moves++
		return nil
	})
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// do runs fn against the current round if a mutation is allowed now.
func (e *Engine) do(op string, fn func(r *round) error) error {
	e.mu.Lock()
	err := e.guardLocked()
	if err == nil {
		err = fn(e.round)
	}
	fin := e.settleLocked(op, err)
	e.mu.Unlock()
	e.notify(fin)
	return err
}

func (e *Engine) guardLocked() error {
	if e.status != StatusPlaying {
		return ErrNotPlaying
	}
	if e.pending {
		return ErrNavigationPending
	}
	return nil
}

func (e *Engine) checkLinkLocked(r *round, target string) error {
	if !e.src.HasLink(r.current(), target) {
		return fmt.Errorf("%w: %q", ErrLinkNotAvailable, target)
	}
	if _, ok := e.src.Document(target); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDocument, target)
	}
	return nil
}

// navigate appends target to the active branch when the current node is
// its tail, and otherwise forks a new branch at the current node first.
func (e *Engine) navigate(r *round, target string) error {
	if err := e.checkLinkLocked(r, target); err != nil {
		return err
	}
	moves := r.moves + 1
	last := r.last()
	id := last.Branch
	if !r.branches.IsTail(last) {
		forked, err := r.branches.Fork(last.Branch, last.Index, r.current(), moves)
		if err != nil {
			return err
		}
		id = forked
	}
	idx, err := r.branches.Append(id, target, moves)
	if err != nil {
		return err
	}
	r.path = append(r.path, branch.Ref{Branch: id, Index: idx})
	r.active = id
	r.moves = moves
	return nil
}

// settleLocked logs the outcome of an operation and finishes the game if
// the goal has been reached. It returns the final snapshot in that case.
func (e *Engine) settleLocked(op string, err error) *Snapshot {
	if err != nil {
		e.log.Debug("operation rejected", "op", op, "err", err)
		return nil
	}
	r := e.round
	cur := r.current()
	e.log.Debug("operation applied", "op", op, "doc", cur, "moves", r.moves, "branch", int(r.active))
	if cur != r.scenario.Goal {
		return nil
	}

	r.endTime = e.clock.Now()
	r.score = Score(r.moves, r.endTime.Sub(r.startTime))
	e.status = StatusFinished
	e.log.Info("game finished", "goal", cur, "moves", r.moves, "score", r.score)
	snap := e.snapshotLocked()
	return &snap
}

func (e *Engine) notify(fin *Snapshot) {
	if fin != nil && e.onFinish != nil {
		e.onFinish(*fin)
	}
}
