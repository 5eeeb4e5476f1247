package fragment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PartInfo describes one available fragment under a component root.
type PartInfo struct {
	// Path is relative to the component root, slash-separated.
	Path string

	// Description comes from the fragment's frontmatter, or its first
	// comment line when no frontmatter is present.
	Description string

	// Tier is the frontmatter tier, empty when unset.
	Tier string

	// Size is the raw file size in bytes.
	Size int64
}

// ListParts enumerates fragments under the component root matching the
// glob patterns. Patterns support recursive wildcards (**). An empty
// pattern list matches everything.
func ListParts(root string, patterns []string) ([]PartInfo, error) {
	if len(patterns) == 0 {
		patterns = []string{"**/*"}
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var parts []PartInfo

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}

		for _, rel := range matches {
			if seen[rel] {
				continue
			}
			seen[rel] = true

			full := filepath.Join(root, filepath.FromSlash(rel))
			info, err := os.Stat(full)
			if err != nil || info.IsDir() {
				continue
			}

			part := PartInfo{Path: rel, Size: info.Size()}
			if data, err := os.ReadFile(full); err == nil {
				part.Description, part.Tier = describe(string(data))
			}
			parts = append(parts, part)
		}
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].Path < parts[j].Path })
	return parts, nil
}

// describe extracts a human-readable description from fragment content:
// frontmatter first, then the first plain comment line.
func describe(content string) (description, tier string) {
	meta, body, err := extractFrontmatter(content)
	if err == nil && (meta.Description != "" || meta.Tier != "") {
		return meta.Description, meta.Tier
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "<!--") && strings.HasSuffix(trimmed, "-->") {
			inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "<!--"), "-->")
			inner = strings.TrimSpace(inner)
			if !strings.HasPrefix(inner, "REFERENCE:") {
				return inner, meta.Tier
			}
		}
	}

	return "", meta.Tier
}
