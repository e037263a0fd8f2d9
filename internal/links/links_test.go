package links

import (
	"slices"
	"testing"
)

func TestParseLinks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "no links",
			body: "Just some text.",
			want: nil,
		},
		{
			name: "single link",
			body: "See [Seoul](seoul.md) for details.",
			want: []string{"seoul.md"},
		},
		{
			name: "keeps document order",
			body: "Go to [a](a.md), then [b](/b.md) and [c](https://example.com/c).",
			want: []string{"a.md", "/b.md", "https://example.com/c"},
		},
		{
			name: "fragment only links are excluded",
			body: "See [section](#overview) above.",
			want: nil,
		},
		{
			name: "links inside lists",
			body: "- [one](one.md)\n- [two](two.md)\n",
			want: []string{"one.md", "two.md"},
		},
		{
			name: "empty body",
			body: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.body).Links
			if !slices.Equal(got, tt.want) {
				t.Errorf("Parse().Links = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"h1", "# Seoul\n\nCapital city.", "Seoul"},
		{"h2 only", "## Notes\n\ntext", ""},
		{"first h1 wins", "# One\n\n# Two\n", "One"},
		{"h1 after text", "intro\n\n# Later\n", "Later"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.body).Title; got != tt.want {
				t.Errorf("Parse().Title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	s := Parse("# Hangul\n\nCreated by [Sejong](sejong-the-great.md), see [script](#script).\n")
	if s.Title != "Hangul" {
		t.Errorf("Title = %q, want %q", s.Title, "Hangul")
	}
	if !slices.Equal(s.Links, []string{"sejong-the-great.md"}) {
		t.Errorf("Links = %v", s.Links)
	}
}

func TestDocumentID(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		dest   string
		want   string
		wantOK bool
	}{
		{"sibling", "korea", "seoul.md", "seoul", true},
		{"sibling in dir", "places/korea", "seoul.md", "places/seoul", true},
		{"parent dir", "places/korea", "../people/sejong.md", "people/sejong", true},
		{"pack absolute", "places/korea", "/hangul.md", "hangul", true},
		{"fragment stripped", "korea", "seoul.md#history", "seoul", true},
		{"query stripped", "korea", "seoul.md?v=1", "seoul", true},
		{"external", "korea", "https://example.com/seoul.md", "", false},
		{"mailto", "korea", "mailto:someone@example.com", "", false},
		{"not markdown", "korea", "map.png", "", false},
		{"escapes pack", "korea", "../outside.md", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DocumentID(tt.from, tt.dest)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DocumentID(%q, %q) = %q, %v, want %q, %v", tt.from, tt.dest, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
