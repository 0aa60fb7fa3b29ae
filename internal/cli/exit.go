package cli

import (
	"errors"
	"fmt"

	"github.com/rshade/clothgen/internal/engine/batch"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitCancelled = 2
)

// ExitError carries a non-zero exit code out of a command. main extracts it
// with errors.As.
type ExitError struct {
	Code   int
	Reason string
}

func (e *ExitError) Error() string {
	return e.Reason
}

// exitErrorFor maps a run outcome to the error a command returns. A discovery
// error is returned as is so its message reaches the user.
func exitErrorFor(result *batch.BatchResult, err error) error {
	if err != nil {
		var de *batch.DiscoveryError
		if errors.As(err, &de) {
			return &ExitError{Code: ExitFailure, Reason: err.Error()}
		}
		return err
	}
	if result == nil {
		return nil
	}
	switch {
	case result.Status == batch.JobCancelled:
		return &ExitError{Code: ExitCancelled, Reason: "run cancelled"}
	case result.FlushErr != nil:
		return &ExitError{Code: ExitFailure, Reason: fmt.Sprintf("saving assets: %v", result.FlushErr)}
	case result.Failed > 0:
		return &ExitError{Code: ExitFailure, Reason: fmt.Sprintf("%d of %d textures failed", result.Failed, result.Total)}
	}
	return nil
}
