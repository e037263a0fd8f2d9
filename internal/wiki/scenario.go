package wiki

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Difficulty grades a scenario. The zero value matches every scenario.
type Difficulty string

const (
	DifficultyAny    Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the selectable difficulties in menu order.
var Difficulties = []Difficulty{DifficultyAny, DifficultyEasy, DifficultyNormal, DifficultyHard}

var (
	ErrNoScenario        = errors.New("no scenario available")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

// ParseDifficulty maps user input onto a Difficulty. "any" and the empty
// string both select every scenario.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "", "any":
		return DifficultyAny, nil
	case "easy", "normal", "hard":
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

func (d Difficulty) String() string {
	if d == DifficultyAny {
		return "any"
	}
	return string(d)
}

// Next returns the difficulty after d in menu order, wrapping around.
func (d Difficulty) Next() Difficulty {
	for i, x := range Difficulties {
		if x == d {
			return Difficulties[(i+1)%len(Difficulties)]
		}
	}
	return DifficultyAny
}

// Scenario is a start/goal pair.
type Scenario struct {
	Start      string     `yaml:"start" json:"start"`
	Goal       string     `yaml:"goal" json:"goal"`
	Difficulty Difficulty `yaml:"difficulty" json:"difficulty"`
}

// Pack is a loaded document graph together with its scenarios.
type Pack struct {
	Graph     *Graph
	Scenarios []Scenario
	// Missing holds links that pointed at documents the pack does not have.
	Missing []Edge
}

// Document returns the document with the given id.
func (p *Pack) Document(id string) (Document, bool) {
	return p.Graph.Document(id)
}

// Links returns the documents id links to, in link order.
func (p *Pack) Links(id string) []Document {
	return p.Graph.Links(id)
}

// HasLink reports whether from links directly to to.
func (p *Pack) HasLink(from, to string) bool {
	return p.Graph.HasLink(from, to)
}

// RandomScenario picks a scenario uniformly at random among those matching
// d. DifficultyAny matches every scenario.
func (p *Pack) RandomScenario(r *rand.Rand, d Difficulty) (Scenario, error) {
	var candidates []Scenario
	for _, s := range p.Scenarios {
		if d == DifficultyAny || s.Difficulty == d {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return Scenario{}, fmt.Errorf("%w: difficulty %s", ErrNoScenario, d)
	}
	return candidates[r.IntN(len(candidates))], nil
}

// Par returns the least number of moves needed to finish s, or -1 if the
// goal cannot be reached.
func (p *Pack) Par(s Scenario) int {
	path := p.Graph.ShortestPath(s.Start, s.Goal)
	if path == nil {
		return -1
	}
	return len(path) - 1
}

// Validate checks that every scenario is playable.
func (p *Pack) Validate() error {
	if len(p.Scenarios) == 0 {
		return ErrNoScenario
	}
	for i, s := range p.Scenarios {
		d, err := ParseDifficulty(string(s.Difficulty))
		if err != nil {
			return fmt.Errorf("scenario %d: %w", i, err)
		}
		if d == DifficultyAny {
			return fmt.Errorf("scenario %d: %w: want easy, normal or hard", i, ErrUnknownDifficulty)
		}
		if _, ok := p.Graph.Document(s.Start); !ok {
			return fmt.Errorf("scenario %d: start document %q not found", i, s.Start)
		}
		if _, ok := p.Graph.Document(s.Goal); !ok {
			return fmt.Errorf("scenario %d: goal document %q not found", i, s.Goal)
		}
		if s.Start == s.Goal {
			return fmt.Errorf("scenario %d: start and goal are both %q", i, s.Start)
		}
		if p.Par(s) < 0 {
			return fmt.Errorf("scenario %d: %q is unreachable from %q", i, s.Goal, s.Start)
		}
	}
	return nil
}
