// Package host drives the affine executor from a plain goroutine for callers
// that have no frame loop of their own, such as plain-output CLI runs, watch
// mode and tests. The interactive TUI drives ticks from its bubbletea Update
// loop instead.
package host

import (
	"context"
	"time"

	"github.com/rshade/clothgen/internal/engine/batch"
	"github.com/rshade/clothgen/internal/logging"
)

// DefaultInterval approximates one frame at 60 Hz.
const DefaultInterval = 16 * time.Millisecond

// Drainer is the owner-side half of an affine executor.
type Drainer interface {
	DrainOnce() batch.DrainStats
}

// Drive calls DrainOnce on the calling goroutine every interval until done is
// closed, then drains one final time. The calling goroutine becomes the owner
// for the duration. Drive keeps ticking after ctx is done: a cancelled run
// still needs drains to resolve the items that were already awaiting.
func Drive(ctx context.Context, d Drainer, interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := logging.FromContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			d.DrainOnce()
			return
		case <-ticker.C:
			stats := d.DrainOnce()
			if stats.Ran > 0 {
				logger.Debug().
					Str("component", "host").
					Int("ran", stats.Ran).
					Int("failed", stats.Failed).
					Dur("duration", stats.Duration).
					Msg("drained affine queue")
			}
		}
	}
}

// RunBatch runs c on a new goroutine and ticks its executor from the calling
// goroutine until the run returns.
func RunBatch[P any](
	ctx context.Context,
	c *batch.Coordinator[P],
	root string,
	opts batch.RunOptions,
	interval time.Duration,
) (*batch.BatchResult, error) {
	var (
		result *batch.BatchResult
		err    error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err = c.Run(ctx, root, opts)
	}()

	Drive(ctx, c.Executor(), interval, done)
	return result, err
}
