package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern matches the textures the generator consumes.
const DefaultPattern = "*.png"

// WorkItem is one discovered input. It is immutable after discovery.
type WorkItem struct {
	// ID is the slash-separated path relative to the discovery root.
	ID string
	// Path is the absolute filesystem path.
	Path string
	// Size is the file size in bytes at discovery time.
	Size int64
}

// Source enumerates work items under a root.
type Source interface {
	Discover(root, pattern string) ([]WorkItem, error)
}

// FileSource walks a directory tree and returns every regular file whose base
// name matches the pattern, ignoring case.
type FileSource struct {
	// Exclude lists directories that are never descended into. Entries may be
	// absolute paths or base names.
	Exclude []string
}

// NewFileSource creates a FileSource that skips the given directories.
func NewFileSource(exclude ...string) *FileSource {
	return &FileSource{Exclude: exclude}
}

// Discover returns the matching files ordered lexically by ID.
func (s *FileSource) Discover(root, pattern string) ([]WorkItem, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	pattern = strings.ToLower(pattern)
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, &DiscoveryError{Root: root, Err: fmt.Errorf("invalid pattern %q: %w", pattern, err)}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Root: root, Err: errors.New("not a directory")}
	}

	excluded := s.excludeSet(absRoot)

	var items []WorkItem
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != absRoot && (excluded[path] || excluded[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ok, _ := filepath.Match(pattern, strings.ToLower(d.Name()))
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		var size int64
		if fi, statErr := d.Info(); statErr == nil {
			size = fi.Size()
		}
		items = append(items, WorkItem{ID: filepath.ToSlash(rel), Path: path, Size: size})
		return nil
	})
	if walkErr != nil {
		return nil, &DiscoveryError{Root: root, Err: walkErr}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *FileSource) excludeSet(absRoot string) map[string]bool {
	set := make(map[string]bool, len(s.Exclude))
	for _, e := range s.Exclude {
		if e == "" {
			continue
		}
		if filepath.IsAbs(e) {
			set[filepath.Clean(e)] = true
			continue
		}
		if strings.ContainsRune(e, filepath.Separator) || strings.Contains(e, "/") {
			set[filepath.Join(absRoot, filepath.FromSlash(e))] = true
			continue
		}
		set[e] = true
	}
	return set
}

// StaticSource yields a fixed list of files regardless of root and pattern.
// It backs single-texture runs and watch-triggered rebuilds.
type StaticSource struct {
	Paths []string
}

// Discover stats every path and returns them ordered by ID. IDs are relative
// to root when the file lives under it, and absolute slash paths otherwise.
// Paths that no longer exist are skipped. A *DiscoveryError is returned for
// any other stat failure, or when every path is gone.
func (s StaticSource) Discover(root, _ string) ([]WorkItem, error) {
	absRoot := ""
	if root != "" {
		if r, err := filepath.Abs(root); err == nil {
			absRoot = r
		}
	}

	seen := make(map[string]bool, len(s.Paths))
	items := make([]WorkItem, 0, len(s.Paths))
	var missing *DiscoveryError
	for _, p := range s.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, &DiscoveryError{Root: p, Err: err}
		}
		info, err := os.Stat(abs)
		if errors.Is(err, fs.ErrNotExist) {
			if missing == nil {
				missing = &DiscoveryError{Root: p, Err: err}
			}
			continue
		}
		if err != nil {
			return nil, &DiscoveryError{Root: p, Err: err}
		}
		if info.IsDir() {
			return nil, &DiscoveryError{Root: p, Err: errors.New("is a directory")}
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		id := filepath.ToSlash(abs)
		if absRoot != "" {
			if rel, relErr := filepath.Rel(absRoot, abs); relErr == nil && !strings.HasPrefix(rel, "..") {
				id = filepath.ToSlash(rel)
			}
		}
		items = append(items, WorkItem{ID: id, Path: abs, Size: info.Size()})
	}

	if len(items) == 0 && missing != nil {
		return nil, missing
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}
