package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/clothgen/internal/logging"
)

// PreprocessFunc is the background phase. It must not touch the shared
// asset store.
type PreprocessFunc[P any] func(ctx context.Context, item WorkItem) (P, error)

// Mutator is the affine phase. Mutate is only ever called from inside
// AffineExecutor.DrainOnce.
type Mutator[P any] interface {
	Mutate(item WorkItem, payload P) error
}

// MutatorFunc adapts a function to Mutator.
type MutatorFunc[P any] func(item WorkItem, payload P) error

// Mutate calls f.
func (f MutatorFunc[P]) Mutate(item WorkItem, payload P) error {
	return f(item, payload)
}

// Flusher persists side effects once every item has resolved. Flush runs as
// an affine closure.
type Flusher interface {
	Flush() error
}

// FlusherFunc adapts a function to Flusher.
type FlusherFunc func() error

// Flush calls f.
func (f FlusherFunc) Flush() error { return f() }

// Config wires a Coordinator. Gate and Executor are long-lived and shared
// across runs.
type Config[P any] struct {
	Source     Source
	Preprocess PreprocessFunc[P]
	Mutator    Mutator[P]
	Flusher    Flusher
	Gate       *Gate
	Executor   *AffineExecutor
	Recorder   Recorder
}

// RunOptions tune a single run.
type RunOptions struct {
	// Pattern filters discovered files. Empty means DefaultPattern.
	Pattern string
	// MaxConcurrency further limits the gate for this run when positive.
	MaxConcurrency int
}

// Coordinator owns the lifecycle of batch runs. Only one run may be active
// at a time. Run must not be called from the goroutine that drives
// Executor.DrainOnce, since Run waits on closures only a drain can execute.
type Coordinator[P any] struct {
	cfg      Config[P]
	progress *Progress

	mu     sync.Mutex
	active *job
}

// NewCoordinator validates cfg and fills in defaults for the optional parts.
func NewCoordinator[P any](cfg Config[P]) (*Coordinator[P], error) {
	if cfg.Source == nil {
		return nil, ErrNilSource
	}
	if cfg.Preprocess == nil {
		return nil, ErrNilPreprocess
	}
	if cfg.Mutator == nil {
		return nil, ErrNilMutator
	}
	if cfg.Gate == nil {
		cfg.Gate = NewGate(CapacityFor(defaultWorkers()))
	}
	if cfg.Executor == nil {
		cfg.Executor = NewAffineExecutor()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	return &Coordinator[P]{cfg: cfg, progress: NewProgress()}, nil
}

// Progress returns the reporter polled by the UI.
func (c *Coordinator[P]) Progress() *Progress { return c.progress }

// Executor returns the affine executor the host must tick.
func (c *Coordinator[P]) Executor() *AffineExecutor { return c.cfg.Executor }

// Gate returns the shared admission gate.
func (c *Coordinator[P]) Gate() *Gate { return c.cfg.Gate }

// Cancel requests cooperative cancellation of the active run. It reports
// whether this call set the request. Extra calls do nothing, as do calls
// with no active run or after every item of the run has resolved.
func (c *Coordinator[P]) Cancel() bool {
	c.mu.Lock()
	j := c.active
	c.mu.Unlock()
	if j == nil {
		return false
	}
	return j.requestCancel()
}

// Run discovers items under root and processes each one. Item failures are
// reported on the result. The only returned errors are *DiscoveryError and
// ErrRunInProgress. When ctx is done the run is cancelled, but background
// phases already started are never interrupted.
func (c *Coordinator[P]) Run(ctx context.Context, root string, opts RunOptions) (*BatchResult, error) {
	j, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer c.end(j)

	stop := context.AfterFunc(ctx, func() { j.requestCancel() })
	defer stop()

	logger := j.logger
	result := &BatchResult{
		JobID:     j.id,
		Root:      root,
		StartedAt: time.Now(),
		Outcomes:  []ItemOutcome{},
	}

	items, err := c.cfg.Source.Discover(root, opts.Pattern)
	if err != nil {
		var de *DiscoveryError
		if !errors.As(err, &de) {
			de = &DiscoveryError{Root: root, Err: err}
		}
		result.Status = JobFailed
		result.FinishedAt = time.Now()
		logger.Error().Err(de).Str("root", root).Msg("discovery failed")
		c.cfg.Recorder.RunFinished(result)
		return result, de
	}

	result.Total = len(items)
	c.progress.setTotal(len(items))
	c.cfg.Recorder.RunStarted(len(items))
	logger.Info().
		Str("root", root).
		Int("items", len(items)).
		Int("capacity", c.cfg.Gate.Limit(opts.MaxConcurrency).Capacity()).
		Msg("batch started")

	if len(items) == 0 {
		result.Status = JobAllCompleted
		result.FinishedAt = time.Now()
		c.cfg.Recorder.RunFinished(result)
		return result, nil
	}

	workers := make([]*itemWorker[P], len(items))
	for i, item := range items {
		workers[i] = newItemWorker(item, j, &c.cfg)
	}

	c.dispatch(ctx, j, workers, c.cfg.Gate.Limit(opts.MaxConcurrency))
	cancelled := j.seal()

	if c.cfg.Flusher != nil {
		result.FlushErr = c.flush()
		if result.FlushErr != nil {
			result.FlushError = result.FlushErr.Error()
			logger.Error().Err(result.FlushErr).Msg("flush failed")
		}
	}

	for _, w := range workers {
		result.add(w.outcome())
	}
	result.Status = JobAllCompleted
	if cancelled {
		result.Status = JobCancelled
	}
	result.FinishedAt = time.Now()

	logger.Info().
		Str("status", string(result.Status)).
		Int("completed", result.Completed).
		Int("failed", result.Failed).
		Int("cancelled", result.Cancelled).
		Dur("duration", result.Duration()).
		Msg("batch finished")
	c.cfg.Recorder.RunFinished(result)
	return result, nil
}

// dispatch admits workers in discovery order and waits for all of them.
// Admission stops at the first failed acquire, which only happens once the
// job is cancelled. Items never admitted resolve as cancelled.
func (c *Coordinator[P]) dispatch(ctx context.Context, j *job, workers []*itemWorker[P], gate *Gate) {
	bgCtx := j.logger.WithContext(context.WithoutCancel(ctx))

	var g errgroup.Group
	admitted := 0
	for _, w := range workers {
		if j.cancelRequested() {
			break
		}
		w.transition(StateDispatched)
		permit, err := gate.Acquire(j.ctx)
		if err != nil {
			break
		}
		admitted++
		g.Go(func() error {
			w.run(bgCtx, permit)
			return nil
		})
	}

	for _, w := range workers[admitted:] {
		w.finish(StateCancelled, KindCancelled, ErrCancelled)
	}

	_ = g.Wait()
}

// flush enqueues the flusher on the owner goroutine and waits for it.
func (c *Coordinator[P]) flush() error {
	done := make(chan error, 1)
	c.cfg.Executor.Enqueue(func() error { return c.cfg.Flusher.Flush() }, func(err error) {
		done <- err
	})
	return <-done
}

func (c *Coordinator[P]) begin(ctx context.Context) (*job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, ErrRunInProgress
	}

	id := ulid.Make().String()
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &job{
		id:       id,
		ctx:      jobCtx,
		cancel:   cancel,
		progress: c.progress,
		recorder: c.cfg.Recorder,
		logger: logging.FromContext(ctx).With().
			Str("component", "batch").
			Str("job_id", id).
			Logger(),
	}
	c.progress.reset(id, time.Now())
	c.active = j
	return j, nil
}

func (c *Coordinator[P]) end(j *job) {
	j.seal()
	j.cancel()

	c.mu.Lock()
	if c.active == j {
		c.active = nil
	}
	c.mu.Unlock()
}
