package batch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// CapacityFor returns the gate capacity for a host with the given number of
// workers. One worker is reserved for the owner goroutine.
func CapacityFor(workers int) int {
	if workers-1 < 1 {
		return 1
	}
	return workers - 1
}

func defaultWorkers() int {
	return runtime.NumCPU()
}

// DefaultCapacity is CapacityFor the host's CPU count.
func DefaultCapacity() int {
	return CapacityFor(defaultWorkers())
}

// Gate bounds the number of items admitted at once. Waiters are served in
// FIFO order by the underlying semaphore.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int
	parent   *Gate

	inUse    atomic.Int64
	acquired atomic.Int64
}

// NewGate creates a gate with the given capacity. Values below 1 become 1.
func NewGate(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
	}
}

// Limit returns a child gate that admits at most n holders while also
// drawing each permit from g. A non-positive n or one at or above g's
// capacity returns g unchanged.
func (g *Gate) Limit(n int) *Gate {
	if n <= 0 || n >= g.capacity {
		return g
	}
	child := NewGate(n)
	child.parent = g
	return child
}

// Permit is a held admission. Release may be called more than once.
type Permit struct {
	gate *Gate
	once sync.Once
}

// Acquire blocks until a permit is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) (*Permit, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if g.parent != nil {
		if _, err := g.parent.Acquire(ctx); err != nil {
			g.sem.Release(1)
			return nil, err
		}
	}
	g.inUse.Add(1)
	g.acquired.Add(1)
	return &Permit{gate: g}, nil
}

// Release returns the permit to its gate.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.gate.release()
	})
}

func (g *Gate) release() {
	g.inUse.Add(-1)
	g.sem.Release(1)
	if g.parent != nil {
		g.parent.release()
	}
}

// Capacity is the maximum number of concurrent holders.
func (g *Gate) Capacity() int {
	if g.parent != nil && g.parent.Capacity() < g.capacity {
		return g.parent.Capacity()
	}
	return g.capacity
}

// InUse is the number of permits currently held.
func (g *Gate) InUse() int {
	return int(g.inUse.Load())
}

// Acquisitions is the number of successful acquires since construction.
func (g *Gate) Acquisitions() int64 {
	return g.acquired.Load()
}
