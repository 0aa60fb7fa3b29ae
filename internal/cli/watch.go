package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/clothgen/internal/engine/batch"
)

const defaultDebounce = 500 * time.Millisecond

// watchSource serves a full discovery for the first run and only the changed
// files afterwards.
type watchSource struct {
	full    *batch.FileSource
	changed []string
}

func (s *watchSource) Discover(root, pattern string) ([]batch.WorkItem, error) {
	if s.changed == nil {
		return s.full.Discover(root, pattern)
	}
	items, err := batch.StaticSource{Paths: s.changed}.Discover(root, pattern)
	if err == nil && len(items) < len(s.changed) {
		logger.Info().
			Int("changed", len(s.changed)).
			Int("present", len(items)).
			Msg("skipping textures removed before processing")
	}
	return items, err
}

// NewWatchCmd creates the watch command. It regenerates bundles for textures
// that change under a folder until interrupted.
func NewWatchCmd() *cobra.Command {
	var (
		f        generateFlags
		debounce time.Duration
		initial  bool
	)

	cmd := &cobra.Command{
		Use:   "watch <folder>",
		Short: "Regenerate bundles whenever textures change",
		Long: `Watches the folder tree and regenerates the bundles of textures that are
created or written. Changes are collected for the debounce period and then
processed as one batch. Progress is always printed as plain lines.`,
		Example: `  # Rebuild vest bundles as textures are saved
  clothgen watch ./textures --type vest

  # Skip the initial full build and wait two seconds for saves to settle
  clothgen watch ./textures --initial=false --debounce 2s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			f = resolveFlags(cfg, f, cmd.Flags().Changed)
			f.plain = true

			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			excluded := excludeDirs(cfg, f.outDir)
			src := &watchSource{full: batch.NewFileSource(excluded...)}
			p, err := newPipeline(cmd.Context(), cfg, f, src)
			if err != nil {
				return err
			}
			return runWatch(cmd, p, src, root, f, watchOptions{
				debounce: debounce,
				initial:  initial,
				skip:     dirSkipper(root, excluded),
			})
		},
	}

	addGenerateFlags(cmd, &f)
	cmd.Flags().StringVar(&f.pattern, "pattern", batch.DefaultPattern, "case-insensitive glob for texture file names")
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before a batch of changes is processed")
	cmd.Flags().BoolVar(&initial, "initial", true, "generate every texture once before watching")

	return cmd
}

type watchOptions struct {
	debounce time.Duration
	initial  bool
	skip     func(dir string) bool
}

func runWatch(cmd *cobra.Command, p *pipeline, src *watchSource, root string, f generateFlags, opts watchOptions) error {
	ctx := cmd.Context()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err = addTree(watcher, root, opts.skip); err != nil {
		return &ExitError{Code: ExitFailure, Reason: err.Error()}
	}

	if opts.initial {
		if _, runErr := p.execute(cmd, root, f); runErr != nil {
			return exitErrorFor(nil, runErr)
		}
	}

	logger.Info().Ctx(ctx).Str("root", root).Msg("watching for texture changes")
	cmd.PrintErrf("Watching %s (Ctrl+C to stop)\n", root)

	batches := make(chan []string)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return collectChanges(gctx, watcher, f.pattern, opts.debounce, opts.skip, batches)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case paths := <-batches:
				src.changed = paths
				_, runErr := p.execute(cmd, root, f)
				var de *batch.DiscoveryError
				switch {
				case errors.As(runErr, &de):
					logger.Warn().Ctx(ctx).Err(runErr).Msg("changed textures disappeared before processing")
				case runErr != nil:
					return runErr
				case ctx.Err() != nil:
					return ctx.Err()
				}
			}
		}
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// collectChanges turns watcher events into debounced batches of texture
// paths. It keeps reading events while a batch waits to be picked up.
func collectChanges(
	ctx context.Context,
	w *fsnotify.Watcher,
	pattern string,
	debounce time.Duration,
	skip func(string) bool,
	out chan<- []string,
) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	var (
		pending = map[string]struct{}{}
		fire    <-chan time.Time
		ready   []string
		send    chan<- []string
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err = addTree(w, event.Name, skip); err != nil {
						logger.Warn().Ctx(ctx).Err(err).Str("dir", event.Name).Msg("could not watch new directory")
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !matchesPattern(pattern, event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			ready = mergePaths(ready, pending)
			pending = map[string]struct{}{}
			send = out

		case send <- ready:
			logger.Debug().Ctx(ctx).Int("textures", len(ready)).Msg("change batch ready")
			ready = nil
			send = nil

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Ctx(ctx).Err(err).Msg("watcher error")
		}
	}
}

func mergePaths(ready []string, pending map[string]struct{}) []string {
	set := make(map[string]struct{}, len(ready)+len(pending))
	for _, p := range ready {
		set[p] = struct{}{}
	}
	for p := range pending {
		set[p] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func matchesPattern(pattern, name string) bool {
	if pattern == "" {
		pattern = batch.DefaultPattern
	}
	ok, err := filepath.Match(strings.ToLower(pattern), strings.ToLower(filepath.Base(name)))
	return err == nil && ok
}

// addTree watches dir and every directory below it that skip allows.
func addTree(w *fsnotify.Watcher, dir string, skip func(string) bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skip != nil && skip(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// dirSkipper matches directories the same way FileSource exclusions do:
// absolute paths, paths relative to root, or bare names.
func dirSkipper(root string, excluded []string) func(string) bool {
	abs := map[string]bool{}
	names := map[string]bool{}
	for _, e := range excluded {
		switch {
		case e == "":
		case filepath.IsAbs(e):
			abs[filepath.Clean(e)] = true
		case strings.ContainsAny(e, `/\`):
			abs[filepath.Join(root, filepath.FromSlash(e))] = true
		default:
			names[e] = true
		}
	}
	return func(dir string) bool {
		return abs[filepath.Clean(dir)] || names[filepath.Base(dir)]
	}
}
