package location

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNormalize_ReturnsForwardSlashRelativePath(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "src", "a.js")
	writeFile(t, target, "")

	rel, err := Normalize(target, root)
	require.NoError(t, err)
	assert.Equal(t, "src/a.js", rel)
}

func TestNormalize_MissingFileIsInvalidPath(t *testing.T) {
	root := t.TempDir()
	_, err := Normalize(filepath.Join(root, "nope.js"), root)
	assert.Error(t, err)
}

func TestWalk_SkipsDefaultIgnoreDirsAndNonMatchingExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.js"), "")
	writeFile(t, filepath.Join(root, "b.txt"), "")
	writeFile(t, filepath.Join(root, "node_modules", "dep.js"), "")
	writeFile(t, filepath.Join(root, "src", "c.tsx"), "")

	files, err := Walk(root, WalkOptions{})
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"a.js", "src/c.tsx"}, rels)
}

func TestWalk_HonorsGitignoreWhenEnabled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.js"), "")
	writeFile(t, filepath.Join(root, "generated.js"), "")
	writeFile(t, filepath.Join(root, ".gitignore"), "generated.js\n")

	files, err := Walk(root, WalkOptions{UseGitignore: true})
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"keep.js"}, rels)
}

func TestWalk_ExtraIgnoreDirsMergeWithDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "vendor", "x.js"), "")
	writeFile(t, filepath.Join(root, "dist", "y.js"), "")
	writeFile(t, filepath.Join(root, "keep.js"), "")

	files, err := Walk(root, WalkOptions{ExtraIgnoreDirs: map[string]bool{"vendor": true}})
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"keep.js"}, rels)
}

func TestResolveRelativeImport_TriesExtensionsThenIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "helper.ts"), "")
	writeFile(t, filepath.Join(root, "lib", "widget", "index.js"), "")

	rel, ok := ResolveRelativeImport(root, "src/app.js", "../lib/helper")
	require.True(t, ok)
	assert.Equal(t, "lib/helper.ts", rel)

	rel, ok = ResolveRelativeImport(root, "src/app.js", "../lib/widget")
	require.True(t, ok)
	assert.Equal(t, "lib/widget/index.js", rel)
}

func TestResolveRelativeImport_NoCandidateExistsReturnsFalse(t *testing.T) {
	root := t.TempDir()
	_, ok := ResolveRelativeImport(root, "src/app.js", "../lib/missing")
	assert.False(t, ok)
}

func TestIsRelativeSource(t *testing.T) {
	assert.True(t, IsRelativeSource("./a"))
	assert.True(t, IsRelativeSource("../a"))
	assert.True(t, IsRelativeSource("/abs/a"))
	assert.False(t, IsRelativeSource("jsonwebtoken"))
}
