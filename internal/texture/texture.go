// Package texture inspects source textures in the background phase. It reads
// each file once, fingerprints it, and decodes only the image header.
package texture

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rshade/clothgen/internal/engine/batch"
	"github.com/rshade/clothgen/internal/engine/cache"
	"github.com/rshade/clothgen/internal/logging"
)

// DefaultMaxBytes bounds a single texture read.
const DefaultMaxBytes = 64 << 20

// Inspection errors.
var (
	ErrEmptyTexture = errors.New("texture file is empty")
	ErrNotImage     = errors.New("file is not a decodable image")
	ErrTooLarge     = errors.New("texture exceeds size limit")
)

// Info is the payload handed from the background phase to the generator.
type Info struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
	SHA256   string    `json:"sha256"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Format   string    `json:"format"`
	HasAlpha bool      `json:"has_alpha"`
}

// Inspector implements the background phase for texture items.
type Inspector struct {
	cache    *cache.Tiered
	maxBytes int64
}

// NewInspector creates an inspector. c may be nil to disable caching.
func NewInspector(c *cache.Tiered) *Inspector {
	return &Inspector{cache: c, maxBytes: DefaultMaxBytes}
}

// WithMaxBytes overrides the per-file size limit.
func (in *Inspector) WithMaxBytes(n int64) *Inspector {
	in.maxBytes = n
	return in
}

// Preprocess adapts Inspect to batch.PreprocessFunc.
func (in *Inspector) Preprocess(ctx context.Context, item batch.WorkItem) (Info, error) {
	return in.Inspect(ctx, item.Path)
}

// Inspect returns header information for the texture at path.
func (in *Inspector) Inspect(ctx context.Context, path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	if fi.Size() == 0 {
		return Info{}, ErrEmptyTexture
	}
	if in.maxBytes > 0 && fi.Size() > in.maxBytes {
		return Info{}, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, fi.Size(), in.maxBytes)
	}

	key := cache.Key(path, fi.Size(), fi.ModTime())
	var cached Info
	if in.cache.Get(key, &cached) {
		logging.FromContext(ctx).Debug().
			Str("component", "texture").
			Str("path", path).
			Msg("inspection cache hit")
		return cached, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrNotImage, err)
	}

	sum := sha256.Sum256(data)
	info := Info{
		Name:     NameOf(path),
		Path:     path,
		Size:     fi.Size(),
		ModTime:  fi.ModTime(),
		SHA256:   hex.EncodeToString(sum[:]),
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		HasAlpha: modelHasAlpha(cfg.ColorModel),
	}

	if setErr := in.cache.Set(key, info); setErr != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "texture").
			Str("path", path).
			Err(setErr).
			Msg("failed to cache inspection")
	}
	return info, nil
}

// NameOf returns the file name without directory or extension.
func NameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func modelHasAlpha(m color.Model) bool {
	switch m {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model:
		return true
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a < 0xffff {
				return true
			}
		}
	}
	return false
}
