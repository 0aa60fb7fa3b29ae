package batch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
}

func ids(items []WorkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestFileSource_Discover(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"b.png",
		"a.PNG",
		"notes.txt",
		"sub/c.png",
		"sub/deeper/d.png",
		"Assets/generated.png",
		".git/ignored.png",
	)

	items, err := NewFileSource("Assets", ".git").Discover(root, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.PNG", "b.png", "sub/c.png", "sub/deeper/d.png"}, ids(items))
	for _, it := range items {
		assert.True(t, filepath.IsAbs(it.Path))
		assert.Equal(t, int64(1), it.Size)
	}
}

func TestFileSource_Deterministic(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "z.png", "m/a.png", "a.png", "m/b.png")

	first, err := NewFileSource().Discover(root, "*.png")
	require.NoError(t, err)
	second, err := NewFileSource().Discover(root, "*.png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a.png", "m/a.png", "m/b.png", "z.png"}, ids(first))
}

func TestFileSource_ExcludeAbsoluteAndNested(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "keep.png", "out/skip.png", "deep/cache/skip.png", "deep/keep.png")

	items, err := NewFileSource(filepath.Join(root, "out"), "deep/cache").Discover(root, "*.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"deep/keep.png", "keep.png"}, ids(items))
}

func TestFileSource_Empty(t *testing.T) {
	items, err := NewFileSource().Discover(t.TempDir(), "*.png")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFileSource_Errors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.png")
	touch(t, root, "file.png")

	tests := []struct {
		name    string
		root    string
		pattern string
	}{
		{"missing root", filepath.Join(root, "nope"), "*.png"},
		{"root is a file", file, "*.png"},
		{"bad pattern", root, "[png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileSource().Discover(tt.root, tt.pattern)
			var de *DiscoveryError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.root, de.Root)
		})
	}
}

func TestStaticSource(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b.png", "a/c.png")
	outside := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	src := StaticSource{Paths: []string{
		filepath.Join(root, "b.png"),
		filepath.Join(root, "a", "c.png"),
		filepath.Join(root, "b.png"),
		outside,
	}}
	items, err := src.Discover(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.ToSlash(outside), "a/c.png", "b.png"}, ids(items))

	_, err = StaticSource{Paths: []string{filepath.Join(root, "gone.png")}}.Discover(root, "")
	var de *DiscoveryError
	assert.True(t, errors.As(err, &de))

	_, err = StaticSource{Paths: []string{root}}.Discover("", "")
	assert.True(t, errors.As(err, &de))
}

func TestStaticSource_SkipsVanishedPaths(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.png", "c.png")

	items, err := StaticSource{Paths: []string{
		filepath.Join(root, "a.png"),
		filepath.Join(root, "gone.png"),
		filepath.Join(root, "c.png"),
	}}.Discover(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "c.png"}, ids(items))

	_, err = StaticSource{Paths: []string{
		filepath.Join(root, "gone.png"),
		filepath.Join(root, "also-gone.png"),
	}}.Discover(root, "")
	var de *DiscoveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, filepath.Join(root, "gone.png"), de.Root)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
