package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to ItemState
		want     bool
	}{
		{StatePending, StateDispatched, true},
		{StateDispatched, StateRunning, true},
		{StateRunning, StateAwaitingAffineExecution, true},
		{StateRunning, StateFailed, true},
		{StateRunning, StateCancelled, true},
		{StateAwaitingAffineExecution, StateCompleted, true},
		{StateAwaitingAffineExecution, StateFailed, true},
		{StateAwaitingAffineExecution, StateCancelled, true},
		{StatePending, StateCancelled, true},
		{StateDispatched, StateCancelled, true},
		{StateRunning, StateRunning, false},
		{StateAwaitingAffineExecution, StateRunning, false},
		{StateCompleted, StateFailed, false},
		{StateCancelled, StateCompleted, false},
		{StateFailed, StateCancelled, false},
		{StatePending, ItemState(42), false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestItemState_String(t *testing.T) {
	assert.Equal(t, "awaiting_affine", StateAwaitingAffineExecution.String())
	assert.Equal(t, "state(9)", ItemState(9).String())
	assert.True(t, StateCancelled.IsTerminal())
	assert.False(t, StateAwaitingAffineExecution.IsTerminal())

	text, err := StateCompleted.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "completed", string(text))
}
