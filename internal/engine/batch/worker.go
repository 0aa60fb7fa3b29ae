package batch

import (
	"context"
	"errors"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// errAffineCancelled marks a closure that observed cancellation before running.
var errAffineCancelled = errors.New("affine closure cancelled")

// job is the per-run aggregate shared by all workers.
type job struct {
	id       string
	ctx      context.Context
	cancel   context.CancelFunc
	progress *Progress
	recorder Recorder
	logger   zerolog.Logger

	// clock orders cancellation against items entering the affine queue.
	// cancelSeq is 0 while open, the clock value of the request once
	// cancelled, or sealedSeq once every item has resolved.
	clock     atomic.Uint64
	cancelSeq atomic.Uint64
}

const sealedSeq = ^uint64(0)

// requestCancel sets the cancellation point once. It reports whether this
// call was the one that set it. It fails once the job is sealed.
func (j *job) requestCancel() bool {
	seq := j.clock.Add(1)
	if !j.cancelSeq.CompareAndSwap(0, seq) {
		return false
	}
	j.cancel()
	j.logger.Info().Msg("cancellation requested")
	return true
}

// seal marks the aggregate terminal. It reports whether cancellation had
// been requested before that point.
func (j *job) seal() bool {
	if j.cancelSeq.CompareAndSwap(0, sealedSeq) {
		return false
	}
	return j.cancelSeq.Load() != sealedSeq
}

func (j *job) cancelRequested() bool {
	cs := j.cancelSeq.Load()
	return cs != 0 && cs != sealedSeq
}

// cancelledBefore reports whether cancellation was requested before seq.
func (j *job) cancelledBefore(seq uint64) bool {
	cs := j.cancelSeq.Load()
	return cs != 0 && cs != sealedSeq && cs < seq
}

// itemWorker drives one item through its state machine.
type itemWorker[P any] struct {
	item       WorkItem
	job        *job
	preprocess PreprocessFunc[P]
	mutator    Mutator[P]
	exec       *AffineExecutor

	state    atomic.Int32
	awaitSeq uint64
	resolved chan struct{}

	kind ErrorKind
	err  error
}

func newItemWorker[P any](item WorkItem, j *job, cfg *Config[P]) *itemWorker[P] {
	return &itemWorker[P]{
		item:       item,
		job:        j,
		preprocess: cfg.Preprocess,
		mutator:    cfg.Mutator,
		exec:       cfg.Executor,
		resolved:   make(chan struct{}),
		kind:       KindNone,
	}
}

// State returns the current state.
func (w *itemWorker[P]) State() ItemState {
	return ItemState(w.state.Load())
}

// transition moves the worker forward and keeps the running and awaiting
// gauges in step. It returns false for illegal moves.
func (w *itemWorker[P]) transition(next ItemState) bool {
	for {
		cur := ItemState(w.state.Load())
		if !cur.CanTransition(next) {
			w.job.logger.Debug().
				Str("item", w.item.ID).
				Stringer("from", cur).
				Stringer("to", next).
				Msg("rejected state transition")
			return false
		}
		if !w.state.CompareAndSwap(int32(cur), int32(next)) {
			continue
		}
		p := w.job.progress
		switch cur {
		case StateRunning:
			p.running.Add(-1)
		case StateAwaitingAffineExecution:
			p.awaiting.Add(-1)
		}
		switch next {
		case StateRunning:
			p.running.Add(1)
		case StateAwaitingAffineExecution:
			p.awaiting.Add(1)
		}
		return true
	}
}

// finish moves the worker to a terminal state exactly once.
func (w *itemWorker[P]) finish(state ItemState, kind ErrorKind, err error) bool {
	if !w.transition(state) {
		return false
	}
	w.kind = kind
	w.err = err

	switch state {
	case StateFailed:
		w.job.logger.Warn().
			Str("kind", string(kind)).
			Str("item", w.item.ID).
			Err(err).
			Msg("item failed")
	case StateCancelled:
		w.job.logger.Info().
			Str("kind", string(kind)).
			Str("item", w.item.ID).
			Err(err).
			Msg("item cancelled")
	}

	w.job.progress.processed.Add(1)
	w.job.recorder.ItemResolved(state, kind)
	close(w.resolved)
	return true
}

// run executes the worker after the gate admitted it. The permit is held
// until the item resolves, including the wait for the affine closure.
func (w *itemWorker[P]) run(ctx context.Context, permit *Permit) {
	defer permit.Release()

	if !w.transition(StateRunning) {
		return
	}
	if w.job.cancelRequested() {
		w.finish(StateCancelled, KindCancelled, ErrCancelled)
		return
	}

	payload, err := w.background(ctx)
	if err != nil {
		w.finish(StateFailed, KindPreprocess, &PreprocessError{Item: w.item.ID, Err: err})
		return
	}

	w.awaitSeq = w.job.clock.Add(1)
	if !w.transition(StateAwaitingAffineExecution) {
		return
	}
	w.exec.Enqueue(func() error { return w.affine(payload) }, w.settle)

	<-w.resolved
}

func (w *itemWorker[P]) background(ctx context.Context) (payload P, err error) {
	w.job.progress.setLabel(w.item.ID)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		w.job.progress.clearLabel(w.item.ID)
		w.job.recorder.BackgroundObserved(time.Since(start), err)
	}()
	return w.preprocess(ctx, w.item)
}

// affine runs on the owner goroutine inside DrainOnce.
func (w *itemWorker[P]) affine(payload P) error {
	if w.job.cancelledBefore(w.awaitSeq) {
		return errAffineCancelled
	}
	return w.mutator.Mutate(w.item, payload)
}

func (w *itemWorker[P]) settle(err error) {
	switch {
	case errors.Is(err, errAffineCancelled):
		w.finish(StateCancelled, KindCancelled, ErrCancelled)
	case err != nil:
		w.finish(StateFailed, KindMutation, &MutationError{Item: w.item.ID, Err: err})
	default:
		w.finish(StateCompleted, KindNone, nil)
	}
}

func (w *itemWorker[P]) outcome() ItemOutcome {
	return ItemOutcome{
		ID:    w.item.ID,
		Path:  w.item.Path,
		State: w.State(),
		Kind:  w.kind,
		Err:   w.err,
	}
}
