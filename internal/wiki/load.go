package wiki

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ScenarioFile is the name of the scenario list at the root of a pack.
const ScenarioFile = "scenarios.yaml"

//go:embed pack
var embedded embed.FS

type scenarioList struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadFS loads a pack from fsys: the scenario list at its root, then every
// document reachable from a scenario start or goal.
func LoadFS(ctx context.Context, fsys fs.FS, opts CrawlOptions) (*Pack, error) {
	data, err := fs.ReadFile(fsys, ScenarioFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ScenarioFile, err)
	}
	var list scenarioList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ScenarioFile, err)
	}

	var starts []string
	for _, s := range list.Scenarios {
		starts = append(starts, s.Start, s.Goal)
	}

	g, err := Crawl(ctx, FSFetcher{FS: fsys}, starts, opts)
	if err != nil {
		return nil, err
	}

	p := &Pack{Graph: g, Scenarios: list.Scenarios}
	p.Missing = g.Prune()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadDir loads a pack from a directory on disk.
func LoadDir(ctx context.Context, dir string) (*Pack, error) {
	return LoadFS(ctx, os.DirFS(dir), CrawlOptions{})
}

var defaultPack = sync.OnceValues(func() (*Pack, error) {
	fsys, err := PackFS("")
	if err != nil {
		return nil, err
	}
	return LoadFS(context.Background(), fsys, CrawlOptions{})
})

// PackFS returns the files of the pack in dir, or of the built-in pack
// when dir is empty.
func PackFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "pack")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	return os.DirFS(dir), nil
}

// Default returns the built-in pack. The pack is loaded once and shared.
func Default() (*Pack, error) {
	return defaultPack()
}

// Open loads the pack in dir, or the built-in pack when dir is empty.
func Open(ctx context.Context, dir string) (*Pack, error) {
	if dir == "" {
		return Default()
	}
	return LoadDir(ctx, dir)
}
