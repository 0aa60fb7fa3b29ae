package batch

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Closure is a unit of owner-goroutine work.
type Closure func() error

type affineTask struct {
	fn   Closure
	done func(error)
}

// DrainStats summarizes one DrainOnce call.
type DrainStats struct {
	Ran      int
	Failed   int
	Skipped  bool
	Duration time.Duration
}

// ExecutorOption configures an AffineExecutor.
type ExecutorOption func(*AffineExecutor)

// WithDrainObserver registers a callback invoked after every non-skipped drain.
func WithDrainObserver(fn func(DrainStats)) ExecutorOption {
	return func(e *AffineExecutor) {
		e.observe = fn
	}
}

// AffineExecutor is a FIFO queue of closures that execute only inside
// DrainOnce, one at a time, on whichever goroutine the host ticks from.
// Enqueue is safe from any goroutine.
type AffineExecutor struct {
	mu       sync.Mutex
	queue    []affineTask
	draining atomic.Bool
	observe  func(DrainStats)
}

// NewAffineExecutor creates an empty executor.
func NewAffineExecutor(opts ...ExecutorOption) *AffineExecutor {
	e := &AffineExecutor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enqueue appends fn and returns immediately. done, if non-nil, receives the
// closure's result on the draining goroutine.
func (e *AffineExecutor) Enqueue(fn Closure, done func(error)) {
	e.mu.Lock()
	e.queue = append(e.queue, affineTask{fn: fn, done: done})
	e.mu.Unlock()
}

// Pending returns the number of queued closures.
func (e *AffineExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Draining reports whether a drain is in progress. Owner-only collaborators
// use it to reject calls made outside a closure.
func (e *AffineExecutor) Draining() bool {
	return e.draining.Load()
}

// DrainOnce runs every closure queued at the moment of the call. Closures
// enqueued while draining wait for the next call. A panicking or failing
// closure does not stop the rest. Overlapping calls return Skipped.
func (e *AffineExecutor) DrainOnce() DrainStats {
	if !e.draining.CompareAndSwap(false, true) {
		return DrainStats{Skipped: true}
	}
	defer e.draining.Store(false)

	e.mu.Lock()
	tasks := e.queue
	e.queue = nil
	e.mu.Unlock()

	start := time.Now()
	var stats DrainStats
	for _, t := range tasks {
		err := runClosure(t.fn)
		stats.Ran++
		if err != nil {
			stats.Failed++
		}
		if t.done != nil {
			t.done(err)
		}
	}
	stats.Duration = time.Since(start)

	if e.observe != nil && stats.Ran > 0 {
		e.observe(stats)
	}
	return stats
}

func runClosure(fn Closure) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	if fn == nil {
		return fmt.Errorf("nil closure")
	}
	return fn()
}
