package fragment

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Meta is the optional YAML frontmatter a fragment may carry. It is
// stripped from the substituted text.
type Meta struct {
	// Description is shown by the parts listing and in verbose traces.
	Description string `yaml:"description"`

	// Tier marks the fragment as "static" or "dynamic" content. The
	// validator uses it to check that static content precedes dynamic
	// content in the composed artifact.
	Tier string `yaml:"tier"`
}

const frontmatterDelimiter = "---"

// extractFrontmatter parses YAML frontmatter from fragment content.
// Returns the parsed metadata and the remaining body. Content without a
// frontmatter block is returned unchanged with zero metadata.
func extractFrontmatter(content string) (Meta, string, error) {
	var meta Meta

	if !strings.HasPrefix(content, frontmatterDelimiter+"\n") &&
		!strings.HasPrefix(content, frontmatterDelimiter+"\r\n") {
		return meta, content, nil
	}

	start := len(frontmatterDelimiter)
	if content[start] == '\r' {
		start++
	}
	start++ // the newline

	// A leading --- with no closing delimiter is not frontmatter, just
	// content that happens to start with a rule. Keep it as body.
	closeIdx := strings.Index(content[start:], "\n"+frontmatterDelimiter)
	if closeIdx == -1 {
		return meta, content, nil
	}

	yamlContent := content[start : start+closeIdx]

	bodyStart := start + closeIdx + 1 + len(frontmatterDelimiter)
	for bodyStart < len(content) && (content[bodyStart] == '\n' || content[bodyStart] == '\r') {
		bodyStart++
	}

	body := ""
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	if err := yaml.Unmarshal([]byte(yamlContent), &meta); err != nil {
		return Meta{}, content, fmt.Errorf("parse frontmatter: %w", err)
	}

	return meta, body, nil
}

// stripXMLDeclaration removes a leading <?xml ...?> line. The declaration
// belongs to the composed artifact, not to each part.
func stripXMLDeclaration(content string) string {
	trimmed := strings.TrimLeft(content, " \t")
	if !strings.HasPrefix(trimmed, "<?xml") {
		return content
	}

	idx := strings.Index(content, "\n")
	if idx == -1 {
		return ""
	}
	return content[idx+1:]
}
