// Package fragment loads reusable prompt components and resolves their
// nested references.
package fragment

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/c360studio/promptforge/template"
)

// DefaultMaxDepth bounds nested resolution. The budget is enforced with an
// explicit stack, independent of the host call-stack depth.
const DefaultMaxDepth = 10

// Fragment is a resolved component.
type Fragment struct {
	// Path is the normalized path relative to the component root.
	Path string

	// Raw is the file content as read.
	Raw string

	// Resolved is the content after frontmatter and XML declaration
	// stripping, with all nested references substituted.
	Resolved string

	// Meta is the parsed frontmatter, zero value when absent.
	Meta Meta
}

// ResolvedPart records one substitution in resolution order, for traces
// and layout validation.
type ResolvedPart struct {
	Path        string
	Tier        string
	Description string
	Bytes       int
}

// Resolver loads fragments from a component root, depth-first in marker
// order. A Resolver carries the state of exactly one composition run;
// create a fresh one per invocation.
type Resolver struct {
	root     string
	rootName string
	maxDepth int
	logger   *slog.Logger

	graph    *Graph
	manifest map[string]int
	parts    []ResolvedPart
	count    int
}

// NewResolver creates a resolver for one run against the given component
// root directory.
func NewResolver(root string, maxDepth int, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{
		root:     root,
		rootName: filepath.Base(root),
		maxDepth: maxDepth,
		logger:   logger,
		graph:    NewGraph(),
		manifest: make(map[string]int),
	}
}

// Resolve loads the fragment referenced by the marker and substitutes its
// nested references. The referrer is the artifact containing the marker;
// the stack is the active resolution chain, seeded with the root template
// path by the caller.
func (r *Resolver) Resolve(m template.Marker, referrer string, stack []string) (*Fragment, error) {
	rel, err := r.normalize(m)
	if err != nil {
		return nil, err
	}

	for i, s := range stack {
		if s == rel {
			chain := append(append([]string(nil), stack[i:]...), rel)
			return nil, &CycleError{Chain: chain}
		}
	}
	if len(stack) > r.maxDepth {
		return nil, &DepthError{Path: rel, Depth: len(stack)}
	}

	r.graph.AddEdge(referrer, rel)

	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: rel, Referrer: referrer}
		}
		return nil, fmt.Errorf("read fragment %s: %w", rel, err)
	}

	f := &Fragment{Path: rel, Raw: string(data)}

	meta, body, err := extractFrontmatter(f.Raw)
	if err != nil {
		return nil, fmt.Errorf("fragment %s: %w", rel, err)
	}
	f.Meta = meta
	body = stripXMLDeclaration(body)

	nested, err := template.Scan(body)
	if err != nil {
		return nil, fmt.Errorf("fragment %s: %w", rel, err)
	}

	childStack := append(append([]string(nil), stack...), rel)
	f.Resolved, err = template.Splice(body, nested, func(nm template.Marker) (string, error) {
		child, err := r.Resolve(nm, rel, childStack)
		if err != nil {
			return "", err
		}
		return child.Resolved, nil
	})
	if err != nil {
		return nil, err
	}

	desc := m.Description
	if desc == "" {
		desc = meta.Description
	}

	r.count++
	r.manifest[rel] = len(f.Resolved)
	r.parts = append(r.parts, ResolvedPart{
		Path:        rel,
		Tier:        meta.Tier,
		Description: desc,
		Bytes:       len(f.Resolved),
	})

	r.logger.Debug("resolved fragment",
		slog.String("path", rel),
		slog.Int("bytes", len(f.Resolved)),
		slog.Int("depth", len(stack)))

	return f, nil
}

// FragmentsResolved returns the number of substitutions performed. Each
// marker occurrence counts once, even when several reference the same
// fragment.
func (r *Resolver) FragmentsResolved() int { return r.count }

// Manifest returns a copy of the path to resolved-byte-length map.
func (r *Resolver) Manifest() map[string]int {
	m := make(map[string]int, len(r.manifest))
	for k, v := range r.manifest {
		m[k] = v
	}
	return m
}

// Parts returns every substitution in resolution order.
func (r *Resolver) Parts() []ResolvedPart { return r.parts }

// Trace returns the reference edges in resolution order.
func (r *Resolver) Trace() []string { return r.graph.Trace() }

// normalize cleans a marker path and rejects paths that cannot name a
// fragment under the component root.
func (r *Resolver) normalize(m template.Marker) (string, error) {
	p := strings.TrimPrefix(m.Path, r.rootName+"/")

	if filepath.IsAbs(p) {
		return "", &template.MalformedMarkerError{
			Line:   m.Line,
			Reason: fmt.Sprintf("fragment path %q is absolute", m.Path),
		}
	}

	clean := path.Clean(filepath.ToSlash(p))
	if clean == ".." || strings.HasPrefix(clean, "../") || clean == "." {
		return "", &template.MalformedMarkerError{
			Line:   m.Line,
			Reason: fmt.Sprintf("fragment path %q escapes the component root", m.Path),
		}
	}

	return clean, nil
}
