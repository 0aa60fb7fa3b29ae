package assets

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/rshade/clothgen/internal/fsx"
)

// Files written on Flush, relative to the store root.
const (
	TagManagerPath = "ProjectSettings/TagManager.yaml"
	ManifestPath   = "manifest.yaml"
)

// Store errors.
var (
	ErrNotOwner         = errors.New("asset store mutated outside the owner goroutine")
	ErrConcurrentAccess = errors.New("asset store accessed concurrently")
	ErrNoFreeLayer      = errors.New("all user layers are in use")
	ErrEscapesRoot      = errors.New("asset path escapes the store root")
)

// OwnerCheck reports whether the caller is running on the owner goroutine.
// batch.AffineExecutor.Draining satisfies it.
type OwnerCheck func() bool

// Store is the shared asset database rooted at an output directory.
type Store struct {
	root      string
	owner     OwnerCheck
	generator string
	busy      atomic.Bool

	tags    []string
	layers  map[int]string
	bundles map[string]Bundle
	dirty   bool
}

// Open loads an existing tag manager and manifest under root, if any.
// owner may be nil, which disables the owner check.
func Open(root string, owner OwnerCheck, generator string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err = fsx.EnsureDir(abs); err != nil {
		return nil, fmt.Errorf("opening asset store: %w", err)
	}

	s := &Store{
		root:      abs,
		owner:     owner,
		generator: generator,
		layers:    map[int]string{},
		bundles:   map[string]Bundle{},
	}

	var tm tagManager
	if loadErr := readYAML(filepath.Join(abs, filepath.FromSlash(TagManagerPath)), &tm); loadErr != nil {
		return nil, loadErr
	}
	s.tags = tm.Tags
	for slot, name := range tm.Layers {
		s.layers[slot] = name
	}

	var m manifest
	if loadErr := readYAML(filepath.Join(abs, ManifestPath), &m); loadErr != nil {
		return nil, loadErr
	}
	for _, b := range m.Bundles {
		s.bundles[b.Folder] = b
	}
	return s, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string { return s.root }

// enter enforces owner-only, one-at-a-time access.
func (s *Store) enter() (func(), error) {
	if s.owner != nil && !s.owner() {
		return nil, ErrNotOwner
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrConcurrentAccess
	}
	return func() { s.busy.Store(false) }, nil
}

func (s *Store) abs(rel string) (string, error) {
	clean := path.Clean(filepath.ToSlash(rel))
	if clean == "." || clean == ".." || path.IsAbs(clean) || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrEscapesRoot, rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// EnsureTag registers tag if missing.
func (s *Store) EnsureTag(tag string) error {
	exit, err := s.enter()
	if err != nil {
		return err
	}
	defer exit()

	for _, t := range s.tags {
		if t == tag {
			return nil
		}
	}
	s.tags = append(s.tags, tag)
	s.dirty = true
	return nil
}

// EnsureLayer returns the slot of layer, assigning the first free user slot
// when it does not exist yet.
func (s *Store) EnsureLayer(layer string) (int, error) {
	exit, err := s.enter()
	if err != nil {
		return -1, err
	}
	defer exit()

	if slot := s.layerOf(layer); slot >= 0 {
		return slot, nil
	}
	for slot := firstUserLayer; slot < layerSlots; slot++ {
		if s.layers[slot] == "" {
			s.layers[slot] = layer
			s.dirty = true
			return slot, nil
		}
	}
	return -1, fmt.Errorf("%w: cannot add %q", ErrNoFreeLayer, layer)
}

func (s *Store) layerOf(layer string) int {
	for slot, name := range s.layers {
		if name == layer {
			return slot
		}
	}
	return -1
}

// Exists reports whether rel exists under the root.
func (s *Store) Exists(rel string) bool {
	p, err := s.abs(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// EnsureFolder creates rel and its parents.
func (s *Store) EnsureFolder(rel string) error {
	exit, err := s.enter()
	if err != nil {
		return err
	}
	defer exit()

	p, err := s.abs(rel)
	if err != nil {
		return err
	}
	return fsx.EnsureDir(p)
}

// CopyFile copies src into the store at rel, replacing any existing file.
func (s *Store) CopyFile(src, rel string) error {
	exit, err := s.enter()
	if err != nil {
		return err
	}
	defer exit()

	p, err := s.abs(rel)
	if err != nil {
		return err
	}
	if _, err = fsx.CopyFileAtomic(src, p); err != nil {
		return fmt.Errorf("copying %s: %w", rel, err)
	}
	return nil
}

// WriteYAML marshals v and writes it at rel.
func (s *Store) WriteYAML(rel string, v any) error {
	exit, err := s.enter()
	if err != nil {
		return err
	}
	defer exit()

	p, err := s.abs(rel)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", rel, err)
	}
	return fsx.WriteFileAtomic(p, data)
}

// RecordBundle adds or replaces a manifest entry. It reports whether an
// entry for the same folder already existed.
func (s *Store) RecordBundle(b Bundle) (bool, error) {
	exit, err := s.enter()
	if err != nil {
		return false, err
	}
	defer exit()

	_, existed := s.bundles[b.Folder]
	s.bundles[b.Folder] = b
	s.dirty = true
	return existed, nil
}

// Flush writes the tag manager and manifest when anything changed.
func (s *Store) Flush() error {
	exit, err := s.enter()
	if err != nil {
		return err
	}
	defer exit()

	if !s.dirty {
		return nil
	}

	tm := tagManager{Tags: append([]string(nil), s.tags...), Layers: map[int]string{}}
	for slot, name := range s.layers {
		tm.Layers[slot] = name
	}
	if err = s.writeLocked(TagManagerPath, tm); err != nil {
		return err
	}

	if err = s.writeLocked(ManifestPath, manifest{Generator: s.generator, Bundles: s.Bundles()}); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *Store) writeLocked(rel string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", rel, err)
	}
	return fsx.WriteFileAtomic(filepath.Join(s.root, filepath.FromSlash(rel)), data)
}

// Tags returns the registered tags in insertion order.
func (s *Store) Tags() []string {
	return append([]string(nil), s.tags...)
}

// Layer returns the slot of layer, or -1.
func (s *Store) Layer(layer string) int {
	return s.layerOf(layer)
}

// Bundles returns the manifest entries ordered by folder.
func (s *Store) Bundles() []Bundle {
	out := make([]Bundle, 0, len(s.bundles))
	for _, b := range s.bundles {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Folder < out[j].Folder })
	return out
}

// Dirty reports whether there are unflushed changes.
func (s *Store) Dirty() bool { return s.dirty }
