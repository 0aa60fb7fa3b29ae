package batch

import "fmt"

// ItemState is the lifecycle state of a single work item.
// The numeric order is the transition order: an item only moves forward.
type ItemState int32

const (
	StatePending ItemState = iota
	StateDispatched
	StateRunning
	StateAwaitingAffineExecution
	StateCompleted
	StateFailed
	StateCancelled
)

var stateNames = map[ItemState]string{
	StatePending:                 "pending",
	StateDispatched:              "dispatched",
	StateRunning:                 "running",
	StateAwaitingAffineExecution: "awaiting_affine",
	StateCompleted:               "completed",
	StateFailed:                  "failed",
	StateCancelled:               "cancelled",
}

// String returns the lower-case name used in logs and JSON output.
func (s ItemState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s ItemState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether no further transition is possible.
func (s ItemState) IsTerminal() bool {
	return s >= StateCompleted
}

// CanTransition reports whether moving from s to next is legal.
// Terminal states are final and no state is ever revisited.
func (s ItemState) CanTransition(next ItemState) bool {
	if s.IsTerminal() {
		return false
	}
	if next < StatePending || next > StateCancelled {
		return false
	}
	return next > s
}

// JobStatus is the aggregate terminal state of a run.
type JobStatus string

const (
	JobAllCompleted JobStatus = "all_completed"
	JobCancelled    JobStatus = "cancelled"
	JobFailed       JobStatus = "failed"
)
