package wiki

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter separates an optional leading "---" delimited YAML block
// from the markdown body. Values are kept as strings so YAML does not
// reinterpret dates or numbers.
func splitFrontmatter(content string) (map[string]string, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, "---\n") {
		return nil, content, nil
	}
	rest := content[4:]
	if strings.HasPrefix(rest, "---\n") {
		return nil, rest[4:], nil
	}
	end := strings.Index(rest, "\n---\n")
	if end == -1 {
		return nil, "", fmt.Errorf("malformed frontmatter: missing closing ---")
	}

	fm := rest[:end]
	body := rest[end+5:]
	if strings.TrimSpace(fm) == "" {
		return nil, body, nil
	}

	var meta map[string]string
	if err := yaml.Unmarshal([]byte(fm), &meta); err != nil {
		return nil, "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return meta, body, nil
}
