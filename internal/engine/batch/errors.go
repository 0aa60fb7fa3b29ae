package batch

import (
	"errors"
	"fmt"
)

// Common batch engine errors.
var (
	ErrRunInProgress = errors.New("a batch run is already in progress")
	ErrCancelled     = errors.New("item cancelled")
	ErrNilPreprocess = errors.New("preprocess function cannot be nil")
	ErrNilMutator    = errors.New("asset mutator cannot be nil")
	ErrNilSource     = errors.New("item source cannot be nil")
)

// ErrorKind tags an item outcome with the phase that produced it.
type ErrorKind string

const (
	KindNone       ErrorKind = "none"
	KindPreprocess ErrorKind = "preprocess"
	KindMutation   ErrorKind = "mutation"
	KindCancelled  ErrorKind = "cancelled"
)

// DiscoveryError reports that the root could not be enumerated.
// It is the only error that fails a run as a whole.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// PreprocessError is a background-phase failure scoped to one item.
type PreprocessError struct {
	Item string
	Err  error
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("preprocess %s: %v", e.Item, e.Err)
}

func (e *PreprocessError) Unwrap() error { return e.Err }

// MutationError is an affine-phase failure scoped to one item.
type MutationError struct {
	Item string
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutate %s: %v", e.Item, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking phase.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
