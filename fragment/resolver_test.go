package fragment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/promptforge/template"
)

// writeParts lays out fragment files under a temp component root.
func writeParts(t *testing.T, parts map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range parts {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return root
}

func marker(path string) template.Marker {
	return template.Marker{Path: path, Line: 1}
}

func TestResolveSimple(t *testing.T) {
	root := writeParts(t, map[string]string{
		"parts/role.xml": "ROLE",
	})

	r := NewResolver(root, 0, nil)
	f, err := r.Resolve(marker("parts/role.xml"), "tpl.xml", []string{"tpl.xml"})
	require.NoError(t, err)

	assert.Equal(t, "ROLE", f.Resolved)
	assert.Equal(t, "parts/role.xml", f.Path)
	assert.Equal(t, 1, r.FragmentsResolved())
	assert.Equal(t, map[string]int{"parts/role.xml": 4}, r.Manifest())
}

func TestResolveNested(t *testing.T) {
	root := writeParts(t, map[string]string{
		"parts/a.xml": "<!-- REFERENCE: parts/b.xml -->",
		"parts/b.xml": "X",
	})

	r := NewResolver(root, 0, nil)
	f, err := r.Resolve(marker("parts/a.xml"), "tpl.xml", []string{"tpl.xml"})
	require.NoError(t, err)

	assert.Equal(t, "X", f.Resolved)
	assert.Equal(t, 2, r.FragmentsResolved())
	assert.Equal(t, []string{
		"tpl.xml -> parts/a.xml",
		"parts/a.xml -> parts/b.xml",
	}, r.Trace())
}

func TestResolveNotFound(t *testing.T) {
	root := writeParts(t, nil)

	r := NewResolver(root, 0, nil)
	_, err := r.Resolve(marker("parts/missing.xml"), "tpl.xml", []string{"tpl.xml"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFragmentNotFound)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "parts/missing.xml", notFound.Path)
	assert.Equal(t, "tpl.xml", notFound.Referrer)
}

func TestResolveCycle(t *testing.T) {
	root := writeParts(t, map[string]string{
		"a.xml": "<!-- REFERENCE: b.xml -->",
		"b.xml": "<!-- REFERENCE: a.xml -->",
	})

	r := NewResolver(root, 0, nil)
	_, err := r.Resolve(marker("a.xml"), "tpl.xml", []string{"tpl.xml"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicReference)

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a.xml", "b.xml", "a.xml"}, cycle.Chain)
	assert.Contains(t, err.Error(), "a.xml -> b.xml -> a.xml")
}

func TestResolveSelfReference(t *testing.T) {
	root := writeParts(t, map[string]string{
		"a.xml": "<!-- REFERENCE: a.xml -->",
	})

	r := NewResolver(root, 0, nil)
	_, err := r.Resolve(marker("a.xml"), "tpl.xml", []string{"tpl.xml"})
	assert.ErrorIs(t, err, ErrCyclicReference)
}

func TestResolveDepthLimit(t *testing.T) {
	root := writeParts(t, map[string]string{
		"c1.xml": "<!-- REFERENCE: c2.xml -->",
		"c2.xml": "<!-- REFERENCE: c3.xml -->",
		"c3.xml": "deep",
	})

	r := NewResolver(root, 2, nil)
	_, err := r.Resolve(marker("c1.xml"), "tpl.xml", []string{"tpl.xml"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecursionLimit)

	var depth *DepthError
	require.ErrorAs(t, err, &depth)
	assert.Equal(t, "c3.xml", depth.Path)

	// The same chain fits a larger budget.
	r = NewResolver(root, 3, nil)
	f, err := r.Resolve(marker("c1.xml"), "tpl.xml", []string{"tpl.xml"})
	require.NoError(t, err)
	assert.Equal(t, "deep", f.Resolved)
}

func TestResolveFrontmatter(t *testing.T) {
	root := writeParts(t, map[string]string{
		"role.xml": `---
description: Agent role
tier: static
---
<role>helper</role>
`,
	})

	r := NewResolver(root, 0, nil)
	f, err := r.Resolve(marker("role.xml"), "tpl.xml", []string{"tpl.xml"})
	require.NoError(t, err)

	assert.Equal(t, "<role>helper</role>\n", f.Resolved)
	assert.Equal(t, "Agent role", f.Meta.Description)
	assert.Equal(t, "static", f.Meta.Tier)

	parts := r.Parts()
	require.Len(t, parts, 1)
	assert.Equal(t, "static", parts[0].Tier)
	assert.Equal(t, "Agent role", parts[0].Description)
}

func TestResolveUnterminatedFrontmatter(t *testing.T) {
	// A leading --- with no closing delimiter is body text (a horizontal
	// rule), not a broken frontmatter block.
	content := "---\nsection one\nsection two\n"
	root := writeParts(t, map[string]string{
		"notes.xml": content,
	})

	r := NewResolver(root, 0, nil)
	f, err := r.Resolve(marker("notes.xml"), "tpl.xml", []string{"tpl.xml"})
	require.NoError(t, err)
	assert.Equal(t, content, f.Resolved)
	assert.Empty(t, f.Meta.Description)
}

func TestResolveStripsXMLDeclaration(t *testing.T) {
	root := writeParts(t, map[string]string{
		"part.xml": "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<section>body</section>\n",
	})

	r := NewResolver(root, 0, nil)
	f, err := r.Resolve(marker("part.xml"), "tpl.xml", []string{"tpl.xml"})
	require.NoError(t, err)
	assert.Equal(t, "<section>body</section>\n", f.Resolved)
}

func TestResolvePartsDirPrefixTolerated(t *testing.T) {
	root := writeParts(t, map[string]string{
		"role.xml": "ROLE",
	})

	// References written as prompt-parts/role.xml resolve the same as
	// role.xml when the root's base name matches the prefix.
	r := NewResolver(root, 0, nil)
	prefixed := filepath.Base(root) + "/role.xml"
	f, err := r.Resolve(marker(prefixed), "tpl.xml", []string{"tpl.xml"})
	require.NoError(t, err)
	assert.Equal(t, "ROLE", f.Resolved)
	assert.Equal(t, "role.xml", f.Path)
}

func TestResolveRejectsEscapingPaths(t *testing.T) {
	root := writeParts(t, nil)
	r := NewResolver(root, 0, nil)

	for _, path := range []string{"../secrets.xml", "a/../../b.xml", "/etc/passwd"} {
		_, err := r.Resolve(marker(path), "tpl.xml", []string{"tpl.xml"})
		var malformed *template.MalformedMarkerError
		assert.ErrorAs(t, err, &malformed, "path %q", path)
	}
}

func TestResolveDuplicateMarkersCountSeparately(t *testing.T) {
	root := writeParts(t, map[string]string{
		"shared.xml": "S",
	})

	r := NewResolver(root, 0, nil)
	for i := 0; i < 2; i++ {
		_, err := r.Resolve(marker("shared.xml"), "tpl.xml", []string{"tpl.xml"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, r.FragmentsResolved())
	assert.Equal(t, map[string]int{"shared.xml": 1}, r.Manifest())
}

func TestResolveMalformedNestedMarker(t *testing.T) {
	root := writeParts(t, map[string]string{
		"bad.xml": "<!-- REFERENCE: -->",
	})

	r := NewResolver(root, 0, nil)
	_, err := r.Resolve(marker("bad.xml"), "tpl.xml", []string{"tpl.xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.xml")
	var malformed *template.MalformedMarkerError
	assert.ErrorAs(t, err, &malformed)
}

func TestResolverIsErrorForUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := writeParts(t, map[string]string{"p.xml": "x"})
	require.NoError(t, os.Chmod(filepath.Join(root, "p.xml"), 0000))

	r := NewResolver(root, 0, nil)
	_, err := r.Resolve(marker("p.xml"), "tpl.xml", []string{"tpl.xml"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFragmentNotFound)
}
