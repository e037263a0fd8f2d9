package cli

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/latebit/wikirace/internal/wiki"
)

type graphNode struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Depth int      `json:"depth"`
	Links []string `json:"links"`
}

type graphReport struct {
	Documents int         `json:"documents"`
	Edges     int         `json:"edges"`
	Missing   []wiki.Edge `json:"missing,omitempty"`
	Nodes     []graphNode `json:"nodes,omitempty"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Crawl the link graph of the pack",
		Long: "Without --from, load the whole pack and report its size and broken links. " +
			"With --from, crawl outward from one document and list what was reached.",
		Run: runGraph,
	}

	cmd.Flags().String("from", "", "Document id to crawl from")
	cmd.Flags().Int("depth", 2, "Maximum link depth when crawling with --from (0: unlimited)")

	RootCmd.AddCommand(cmd)
}

func runGraph(cmd *cobra.Command, args []string) {
	from, _ := cmd.Flags().GetString("from")
	depth, _ := cmd.Flags().GetInt("depth")

	cfg := loadConfig()
	if from == "" {
		p := openPack(cmd.Context(), cfg)
		printJSON(cmd, graphReport{
			Documents: p.Graph.Len(),
			Edges:     p.Graph.EdgeCount(),
			Missing:   p.Missing,
		})
		return
	}

	fsys, err := wiki.PackFS(cfg.PackDir)
	if err != nil {
		exitErr("open pack", err)
	}
	log := newLogger(cmd, cfg)

	var mu sync.Mutex
	depths := make(map[string]int)
	g, err := wiki.Crawl(cmd.Context(), wiki.FSFetcher{FS: fsys}, []string{from}, wiki.CrawlOptions{
		MaxDepth: depth,
		OnDocument: func(d wiki.Document, depth int) {
			log.Debug("crawled", "doc", d.ID, "depth", depth, "links", len(d.Links))
			mu.Lock()
			defer mu.Unlock()
			depths[d.ID] = depth
		},
	})
	if err != nil {
		exitErr("crawl", err)
	}
	if g.Len() == 0 {
		exitErr("crawl", fmt.Errorf("no document %q in the pack", from))
	}

	report := graphReport{}
	for _, id := range g.IDs() {
		d, _ := g.Document(id)
		report.Nodes = append(report.Nodes, graphNode{ID: id, Title: d.Title, Depth: depths[id], Links: d.Links})
	}
	sort.SliceStable(report.Nodes, func(i, j int) bool { return report.Nodes[i].Depth < report.Nodes[j].Depth })
	// Edges count only links between crawled documents. With a depth limit
	// the dropped links point past it, so they are not reported as missing.
	report.Missing = g.Prune()
	if depth > 0 {
		report.Missing = nil
	}
	report.Documents = g.Len()
	report.Edges = g.EdgeCount()
	printJSON(cmd, report)
}
