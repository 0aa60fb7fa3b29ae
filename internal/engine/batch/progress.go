package batch

import (
	"sync/atomic"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks one run's counters. Every field is updated with a single
// atomic operation so Snapshot never takes a lock.
type Progress struct {
	jobID     atomic.Pointer[string]
	label     atomic.Pointer[string]
	startedAt atomic.Int64

	total     atomic.Int64
	processed atomic.Int64
	running   atomic.Int64
	awaiting  atomic.Int64
}

// NewProgress creates an idle tracker.
func NewProgress() *Progress {
	return &Progress{}
}

// Snapshot is an immutable copy of progress state.
type Snapshot struct {
	JobID        string
	Total        int
	Processed    int
	Running      int
	Awaiting     int
	CurrentLabel string
	Fraction     float64
	StartedAt    time.Time
	Elapsed      time.Duration
}

// Percent returns Fraction scaled to 0-100.
func (s Snapshot) Percent() float64 {
	return s.Fraction * percentMultiplier
}

// Done reports whether every item has reached a terminal state.
func (s Snapshot) Done() bool {
	return s.Processed >= s.Total
}

// Snapshot returns the current counters. Safe to call from any goroutine.
func (p *Progress) Snapshot() Snapshot {
	total := p.total.Load()
	processed := p.processed.Load()

	s := Snapshot{
		Total:     int(total),
		Processed: int(processed),
		Running:   int(p.running.Load()),
		Awaiting:  int(p.awaiting.Load()),
	}
	if id := p.jobID.Load(); id != nil {
		s.JobID = *id
	}
	if l := p.label.Load(); l != nil {
		s.CurrentLabel = *l
	}
	if total > 0 {
		s.Fraction = float64(processed) / float64(total)
		if s.Fraction > 1 {
			s.Fraction = 1
		}
	}
	if ns := p.startedAt.Load(); ns != 0 {
		s.StartedAt = time.Unix(0, ns)
		s.Elapsed = time.Since(s.StartedAt)
	}
	return s
}

// reset prepares the tracker for a new run.
func (p *Progress) reset(jobID string, started time.Time) {
	p.total.Store(0)
	p.processed.Store(0)
	p.running.Store(0)
	p.awaiting.Store(0)
	p.label.Store(nil)
	p.jobID.Store(&jobID)
	p.startedAt.Store(started.UnixNano())
}

func (p *Progress) setTotal(n int) {
	p.total.Store(int64(n))
}

func (p *Progress) setLabel(label string) {
	p.label.Store(&label)
}

// clearLabel removes label only if it is still the current one.
func (p *Progress) clearLabel(label string) {
	cur := p.label.Load()
	if cur != nil && *cur == label {
		p.label.CompareAndSwap(cur, nil)
	}
}
