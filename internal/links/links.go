// Package links extracts links and titles from markdown pack documents and
// maps link destinations onto document ids.
package links

import (
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Summary is what a single parse of a document yields.
type Summary struct {
	Title string   // text of the first level-1 heading, if any
	Links []string // link destinations in document order, fragments excluded
}

// Parse parses body as markdown and returns its first level-1 heading and
// every non-fragment link destination.
func Parse(body string) Summary {
	src := []byte(body)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var s Summary
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			if n.Level == 1 && s.Title == "" {
				s.Title = strings.TrimSpace(string(n.Text(src)))
			}
		case *ast.Link:
			dest := string(n.Destination)
			if dest != "" && !strings.HasPrefix(dest, "#") {
				s.Links = append(s.Links, dest)
			}
		}
		return ast.WalkContinue, nil
	})
	return s
}

// DocumentID resolves dest, found in the document with id from, to the id
// of another document in the same pack. Ids are slash-separated paths
// relative to the pack root without the .md extension. External URLs,
// non-markdown targets and paths escaping the pack report false.
func DocumentID(from, dest string) (string, bool) {
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:") {
		return "", false
	}
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		dest = dest[:i]
	}
	if !strings.HasSuffix(dest, ".md") {
		return "", false
	}

	var p string
	if strings.HasPrefix(dest, "/") {
		p = path.Clean(strings.TrimPrefix(dest, "/"))
	} else {
		p = path.Join(path.Dir(from), dest)
	}
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return strings.TrimSuffix(p, ".md"), true
}
