// Package template parses root prompt templates and extracts component
// reference markers.
//
// The marker grammar is a fixed contract. A reference is an HTML/XML
// comment line:
//
//	<!-- REFERENCE: sections/role.xml -->
//
// optionally followed, on the same line or the next, by a plain comment
// that is taken as the human-readable description of the component:
//
//	<!-- REFERENCE: sections/role.xml -->
//	<!-- Agent role and personality definition -->
//
// The description is informational only; it is preserved for traceability
// but never affects resolution.
package template

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Marker is a single component reference found in a template or fragment.
type Marker struct {
	// Path is the fragment path relative to the component root.
	Path string

	// Description is the optional trailing comment text, empty when absent.
	Description string

	// Offset is the byte offset where the marker span starts.
	Offset int

	// End is the byte offset just past the marker span. Substitution
	// replaces exactly the bytes in [Offset, End).
	End int

	// Line is the 1-based line number of the reference comment.
	Line int
}

// Template is a parsed root artifact with its markers in source order.
type Template struct {
	Path    string
	Raw     string
	Markers []Marker
}

// refPattern matches a reference comment.
var refPattern = regexp.MustCompile(`<!--\s*REFERENCE:([^>]*?)-->`)

// descPattern matches a description comment adjacent to a reference,
// on the same line or the next.
var descPattern = regexp.MustCompile(`^[ \t]*\r?\n?[ \t]*<!--\s*([^>]*?)\s*-->`)

// MalformedMarkerError reports marker syntax whose path is unusable.
type MalformedMarkerError struct {
	Line   int
	Reason string
}

func (e *MalformedMarkerError) Error() string {
	return fmt.Sprintf("malformed marker at line %d: %s", e.Line, e.Reason)
}

// Scan extracts all reference markers from template text in
// first-occurrence order. Text with no markers yields a nil slice, which
// is a valid result, not an error.
func Scan(text string) ([]Marker, error) {
	var markers []Marker

	for _, loc := range refPattern.FindAllStringSubmatchIndex(text, -1) {
		m := Marker{
			Offset: loc[0],
			End:    loc[1],
			Line:   lineAt(text, loc[0]),
		}

		m.Path = strings.TrimSpace(text[loc[2]:loc[3]])
		if m.Path == "" {
			return nil, &MalformedMarkerError{Line: m.Line, Reason: "empty fragment path"}
		}
		if strings.ContainsAny(m.Path, " \t") {
			return nil, &MalformedMarkerError{
				Line:   m.Line,
				Reason: fmt.Sprintf("fragment path %q contains whitespace", m.Path),
			}
		}

		// An adjacent plain comment is the marker's description. A
		// following reference comment is the next marker, never a
		// description.
		if d := descPattern.FindStringSubmatchIndex(text[loc[1]:]); d != nil {
			desc := strings.TrimSpace(text[loc[1]+d[2] : loc[1]+d[3]])
			if !strings.HasPrefix(desc, "REFERENCE:") {
				m.Description = desc
				m.End = loc[1] + d[1]
			}
		}

		markers = append(markers, m)
	}

	return markers, nil
}

// Load reads a template file and scans it for markers.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	markers, err := Scan(string(data))
	if err != nil {
		return nil, err
	}

	return &Template{
		Path:    path,
		Raw:     string(data),
		Markers: markers,
	}, nil
}

// Splice replaces each marker span with replacement text, preserving every
// byte outside the spans. Markers must be in ascending offset order, as
// produced by Scan. Splicing is pure text surgery; the only errors it can
// return are those surfaced by the replacement callback.
func Splice(text string, markers []Marker, repl func(Marker) (string, error)) (string, error) {
	if len(markers) == 0 {
		return text, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range markers {
		b.WriteString(text[last:m.Offset])
		s, err := repl(m)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
		last = m.End
	}
	b.WriteString(text[last:])

	return b.String(), nil
}

// lineAt returns the 1-based line number containing the byte offset.
func lineAt(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}
