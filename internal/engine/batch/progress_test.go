package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Idle(t *testing.T) {
	s := NewProgress().Snapshot()
	assert.Zero(t, s.Fraction)
	assert.Empty(t, s.JobID)
	assert.True(t, s.StartedAt.IsZero())
	assert.True(t, s.Done())
}

func TestProgress_Counters(t *testing.T) {
	p := NewProgress()
	p.reset("job-1", time.Now().Add(-time.Second))
	p.setTotal(4)
	p.processed.Add(1)
	p.running.Add(2)
	p.awaiting.Add(1)

	s := p.Snapshot()
	assert.Equal(t, "job-1", s.JobID)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Processed)
	assert.Equal(t, 2, s.Running)
	assert.Equal(t, 1, s.Awaiting)
	assert.InDelta(t, 0.25, s.Fraction, 1e-9)
	assert.InDelta(t, 25.0, s.Percent(), 1e-9)
	assert.GreaterOrEqual(t, s.Elapsed, time.Second)
	assert.False(t, s.Done())

	p.processed.Add(10)
	assert.InDelta(t, 1.0, p.Snapshot().Fraction, 1e-9)

	p.reset("job-2", time.Now())
	s = p.Snapshot()
	assert.Equal(t, "job-2", s.JobID)
	assert.Zero(t, s.Processed)
	assert.Zero(t, s.Total)
}

func TestProgress_Label(t *testing.T) {
	p := NewProgress()
	p.setLabel("a.png")
	p.setLabel("b.png")
	p.clearLabel("a.png")
	assert.Equal(t, "b.png", p.Snapshot().CurrentLabel)

	p.clearLabel("b.png")
	assert.Empty(t, p.Snapshot().CurrentLabel)
}
