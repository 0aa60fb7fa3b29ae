package batch

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineExecutor_FIFO(t *testing.T) {
	e := NewAffineExecutor()
	var order []int
	for i := range 5 {
		e.Enqueue(func() error {
			order = append(order, i)
			return nil
		}, nil)
	}
	assert.Equal(t, 5, e.Pending())

	stats := e.DrainOnce()
	assert.Equal(t, 5, stats.Ran)
	assert.Zero(t, stats.Failed)
	assert.False(t, stats.Skipped)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Zero(t, e.Pending())
}

func TestAffineExecutor_EmptyDrain(t *testing.T) {
	observed := 0
	e := NewAffineExecutor(WithDrainObserver(func(DrainStats) { observed++ }))
	stats := e.DrainOnce()
	assert.Zero(t, stats.Ran)
	assert.Zero(t, observed)
}

func TestAffineExecutor_FailuresDoNotStopQueue(t *testing.T) {
	e := NewAffineExecutor()
	boom := errors.New("boom")

	var results []error
	record := func(err error) { results = append(results, err) }

	e.Enqueue(func() error { return nil }, record)
	e.Enqueue(func() error { return boom }, record)
	e.Enqueue(func() error { panic("kaboom") }, record)
	e.Enqueue(nil, record)
	e.Enqueue(func() error { return nil }, record)

	stats := e.DrainOnce()
	assert.Equal(t, 5, stats.Ran)
	assert.Equal(t, 3, stats.Failed)
	require.Len(t, results, 5)

	assert.NoError(t, results[0])
	assert.ErrorIs(t, results[1], boom)
	var pe *PanicError
	require.ErrorAs(t, results[2], &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
	assert.Error(t, results[3])
	assert.NoError(t, results[4])
}

func TestAffineExecutor_EnqueueDuringDrainWaits(t *testing.T) {
	e := NewAffineExecutor()
	var order []string
	e.Enqueue(func() error {
		order = append(order, "first")
		e.Enqueue(func() error {
			order = append(order, "nested")
			return nil
		}, nil)
		return nil
	}, nil)

	stats := e.DrainOnce()
	assert.Equal(t, 1, stats.Ran)
	assert.Equal(t, []string{"first"}, order)
	assert.Equal(t, 1, e.Pending())

	stats = e.DrainOnce()
	assert.Equal(t, 1, stats.Ran)
	assert.Equal(t, []string{"first", "nested"}, order)
}

func TestAffineExecutor_ReentrantDrainSkipped(t *testing.T) {
	e := NewAffineExecutor()
	var inner DrainStats
	var sawDraining bool
	e.Enqueue(func() error {
		sawDraining = e.Draining()
		inner = e.DrainOnce()
		return nil
	}, nil)

	assert.False(t, e.Draining())
	outer := e.DrainOnce()
	assert.True(t, inner.Skipped)
	assert.True(t, sawDraining)
	assert.False(t, outer.Skipped)
	assert.False(t, e.Draining())
}

func TestAffineExecutor_ClosuresNeverOverlap(t *testing.T) {
	e := NewAffineExecutor()
	var (
		mu      sync.Mutex
		active  int
		overlap bool
		wg      sync.WaitGroup
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Enqueue(func() error {
				mu.Lock()
				active++
				if active > 1 {
					overlap = true
				}
				mu.Unlock()
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			}, nil)
		}()
	}

	done := make(chan struct{})
	var drainers sync.WaitGroup
	for range 4 {
		drainers.Add(1)
		go func() {
			defer drainers.Done()
			for {
				select {
				case <-done:
					return
				default:
					e.DrainOnce()
				}
			}
		}()
	}
	wg.Wait()
	assert.Eventually(t, func() bool { return e.Pending() == 0 }, testWait, testTick)
	close(done)
	drainers.Wait()
	assert.False(t, overlap)
}

func TestAffineExecutor_Observer(t *testing.T) {
	var got []DrainStats
	e := NewAffineExecutor(WithDrainObserver(func(s DrainStats) { got = append(got, s) }))
	e.Enqueue(func() error { return errors.New("x") }, nil)
	e.Enqueue(func() error { return nil }, nil)
	e.DrainOnce()

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Ran)
	assert.Equal(t, 1, got[0].Failed)
}
