package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rshade/clothgen/internal/assets"
	"github.com/rshade/clothgen/internal/config"
	"github.com/rshade/clothgen/internal/engine/batch"
	"github.com/rshade/clothgen/internal/engine/cache"
	"github.com/rshade/clothgen/internal/metrics"
	"github.com/rshade/clothgen/internal/texture"
	"github.com/rshade/clothgen/pkg/version"
)

// generateFlags are shared by generate, single and watch.
type generateFlags struct {
	clothingType   string
	outDir         string
	pattern        string
	maxConcurrency int
	timeout        time.Duration
	plain          bool
	jsonOutput     bool
	metricsFile    string
	noCache        bool
}

// pipeline is one fully wired engine: gate, executor, cache, inspector,
// asset store and generator behind a coordinator.
type pipeline struct {
	coord     *batch.Coordinator[texture.Info]
	generator *assets.Generator
	recorder  *metrics.Recorder
	tiered    *cache.Tiered
	tick      time.Duration
	runOpts   batch.RunOptions
	timeout   time.Duration
	title     string
}

// resolveFlags applies flags that were explicitly set over cfg.
func resolveFlags(cfg *config.Config, f generateFlags, changed func(string) bool) generateFlags {
	if !changed("type") {
		f.clothingType = cfg.Generator.ClothingType
	}
	if !changed("out") {
		f.outDir = cfg.Generator.OutputDir
	}
	if !changed("pattern") {
		f.pattern = cfg.Engine.Pattern
	}
	if !changed("max-concurrency") {
		f.maxConcurrency = cfg.Engine.MaxConcurrency
	}
	if !changed("timeout") {
		if d, err := cfg.Engine.RunTimeout(); err == nil {
			f.timeout = d
		}
	}
	if !changed("metrics-file") {
		f.metricsFile = cfg.Metrics.Textfile
	}
	return f
}

// newPipeline wires the engine for one command. source decides which
// textures a run sees.
func newPipeline(ctx context.Context, cfg *config.Config, f generateFlags, source batch.Source) (*pipeline, error) {
	clothing, err := assets.ParseClothingType(f.clothingType)
	if err != nil {
		return nil, err
	}
	tick, err := cfg.Engine.Tick()
	if err != nil {
		return nil, fmt.Errorf("engine.tick_interval: %w", err)
	}

	workers := cfg.Engine.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tiered := newTextureCache(ctx, cfg, f.noCache)

	rec := metrics.New()
	exec := batch.NewAffineExecutor(batch.WithDrainObserver(rec.ObserveDrain))

	store, err := assets.Open(f.outDir, exec.Draining, "clothgen "+version.GetVersion())
	if err != nil {
		return nil, err
	}
	gen := assets.NewGenerator(store, assets.Options{
		Type:           clothing,
		Mesh:           cfg.Generator.Mesh,
		EquipAnimation: cfg.Generator.EquipAnimation,
		UseAnimation:   cfg.Generator.UseAnimation,
	})

	coord, err := batch.NewCoordinator(batch.Config[texture.Info]{
		Source:     source,
		Preprocess: texture.NewInspector(tiered).Preprocess,
		Mutator:    gen,
		Flusher:    gen,
		Gate:       batch.NewGate(batch.CapacityFor(workers)),
		Executor:   exec,
		Recorder:   rec,
	})
	if err != nil {
		return nil, err
	}

	plog := logger.With().
		Str("type", clothing.String()).
		Str("out", store.Root()).
		Int("workers", workers).
		Int("capacity", coord.Gate().Capacity()).
		Logger()
	plog.Debug().Ctx(ctx).Msg("pipeline ready")

	return &pipeline{
		coord:     coord,
		generator: gen,
		recorder:  rec,
		tiered:    tiered,
		tick:      tick,
		runOpts:   batch.RunOptions{Pattern: f.pattern, MaxConcurrency: f.maxConcurrency},
		timeout:   f.timeout,
		title:     fmt.Sprintf("Generating %s bundles", clothing),
	}, nil
}

// newTextureCache builds the inspection cache, or returns nil when caching is
// off. A disk tier that cannot be opened is logged and skipped, leaving the
// memory tier.
func newTextureCache(ctx context.Context, cfg *config.Config, disabled bool) *cache.Tiered {
	if disabled || !cache.ResolveEnabled(cfg.Cache.Enabled) {
		return nil
	}
	ttl := cache.ResolveTTL(cfg.Cache.TTLSeconds)

	var disk *cache.FileStore
	if dir, err := cfg.GetCacheDir(); err == nil {
		disk, err = cache.NewFileStore(filepath.Join(dir, "textures"), true, ttl)
		if err != nil {
			logger.Warn().Ctx(ctx).Err(err).Str("dir", dir).Msg("texture disk cache unavailable")
			disk = nil
		} else if err = disk.CleanupExpired(); err != nil {
			logger.Debug().Ctx(ctx).Err(err).Str("dir", disk.GetDirectory()).Msg("cache sweep failed")
		}
	}
	return cache.NewTiered(cfg.Cache.LRUSize, time.Duration(ttl)*time.Second, disk)
}

// excludeDirs keeps generated output and config folders out of discovery.
func excludeDirs(cfg *config.Config, outDir string) []string {
	dirs := append([]string{config.ProjectDirName}, cfg.Engine.ExcludeDirs...)
	if abs, err := filepath.Abs(outDir); err == nil {
		dirs = append(dirs, abs)
	}
	return dirs
}
