package wiki

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/latebit/wikirace/internal/links"
)

// Fetcher returns the raw markdown of a document by id.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (string, error)
}

// FSFetcher reads documents as <id>.md files from a file system.
type FSFetcher struct {
	FS fs.FS
}

// Fetch implements Fetcher.
func (f FSFetcher) Fetch(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := fs.ReadFile(f.FS, id+".md")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CrawlOptions configures the pack crawler.
type CrawlOptions struct {
	MaxDepth   int                         // maximum link hops from a start document (0: unlimited)
	Workers    int                         // concurrent fetch goroutines (default: 5)
	OnDocument func(d Document, depth int) // called for every loaded document, may be nil
}

func (o *CrawlOptions) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 5
	}
}

type crawlItem struct {
	id    string
	depth int
}

// Crawl loads every document reachable from starts by following links.
// Documents that do not exist are skipped so their links can be pruned
// afterwards; any other fetch or parse failure is returned once the crawl
// has drained.
func Crawl(ctx context.Context, fetcher Fetcher, starts []string, opts CrawlOptions) (*Graph, error) {
	opts.applyDefaults()
	g := NewGraph()

	queue := make(chan crawlItem, 1000)
	var wg sync.WaitGroup

	visited := make(map[string]bool)
	var errs []error
	var mu sync.Mutex

	// markVisited returns true if id was not yet visited, and marks it.
	markVisited := func(id string) bool {
		mu.Lock()
		defer mu.Unlock()
		if visited[id] {
			return false
		}
		visited[id] = true
		return true
	}
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	}

	for range opts.Workers {
		go func() {
			for item := range queue {
				func() {
					defer wg.Done()

					if ctx.Err() != nil {
						return
					}

					raw, err := fetcher.Fetch(ctx, item.id)
					if errors.Is(err, fs.ErrNotExist) {
						return
					}
					if err != nil {
						fail(fmt.Errorf("fetching %s: %w", item.id, err))
						return
					}

					doc, err := parseDocument(item.id, raw)
					if err != nil {
						fail(fmt.Errorf("parsing %s: %w", item.id, err))
						return
					}
					g.AddDocument(doc)
					if opts.OnDocument != nil {
						opts.OnDocument(doc, item.depth)
					}

					if opts.MaxDepth > 0 && item.depth >= opts.MaxDepth {
						return
					}
					for _, l := range doc.Links {
						if markVisited(l) {
							wg.Add(1)
							child := crawlItem{id: l, depth: item.depth + 1}
							go func() { queue <- child }()
						}
					}
				}()
			}
		}()
	}

	for _, id := range starts {
		if markVisited(id) {
			wg.Add(1)
			queue <- crawlItem{id: id}
		}
	}

	wg.Wait()
	close(queue)

	if err := ctx.Err(); err != nil {
		return g, err
	}
	return g, errors.Join(errs...)
}

// parseDocument turns raw markdown into a Document. The title comes from a
// frontmatter "title" key, else the first level-1 heading, else the id.
func parseDocument(id, raw string) (Document, error) {
	meta, body, err := splitFrontmatter(raw)
	if err != nil {
		return Document{}, err
	}
	summary := links.Parse(body)

	doc := Document{ID: id, Title: meta["title"], Content: body}
	if doc.Title == "" {
		doc.Title = summary.Title
	}
	if doc.Title == "" {
		doc.Title = id
	}
	for _, dest := range summary.Links {
		if target, ok := links.DocumentID(id, dest); ok {
			doc.Links = append(doc.Links, target)
		}
	}
	return doc, nil
}
