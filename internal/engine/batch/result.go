package batch

import "time"

// ItemOutcome is the terminal record for one work item.
type ItemOutcome struct {
	ID    string    `json:"id"`
	Path  string    `json:"path"`
	State ItemState `json:"state"`
	Kind  ErrorKind `json:"kind"`
	Err   error     `json:"-"`
	// Error mirrors Err for JSON output.
	Error string `json:"error,omitempty"`
}

// BatchResult is the aggregate outcome of one run.
//
//nolint:revive // BatchResult reads better than batch.Result at call sites.
type BatchResult struct {
	JobID      string        `json:"job_id"`
	Root       string        `json:"root"`
	Status     JobStatus     `json:"status"`
	Total      int           `json:"total"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	Cancelled  int           `json:"cancelled"`
	Outcomes   []ItemOutcome `json:"outcomes"`
	FlushErr   error         `json:"-"`
	FlushError string        `json:"flush_error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Processed is the number of items that reached a terminal state.
func (r *BatchResult) Processed() int {
	return r.Completed + r.Failed + r.Cancelled
}

// Duration is the wall time of the run.
func (r *BatchResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// HasFailures reports whether any item failed or the flush failed.
func (r *BatchResult) HasFailures() bool {
	return r.Failed > 0 || r.FlushErr != nil
}

// Failures returns the outcomes that ended in StateFailed.
func (r *BatchResult) Failures() []ItemOutcome {
	var out []ItemOutcome
	for _, o := range r.Outcomes {
		if o.State == StateFailed {
			out = append(out, o)
		}
	}
	return out
}

func (r *BatchResult) add(o ItemOutcome) {
	if o.Err != nil {
		o.Error = o.Err.Error()
	}
	switch o.State {
	case StateCompleted:
		r.Completed++
	case StateFailed:
		r.Failed++
	case StateCancelled:
		r.Cancelled++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Recorder observes engine events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RunStarted(total int)
	ItemResolved(state ItemState, kind ErrorKind)
	BackgroundObserved(d time.Duration, err error)
	RunFinished(result *BatchResult)
}

type nopRecorder struct{}

func (nopRecorder) RunStarted(int)                          {}
func (nopRecorder) ItemResolved(ItemState, ErrorKind)       {}
func (nopRecorder) BackgroundObserved(time.Duration, error) {}
func (nopRecorder) RunFinished(*BatchResult)                {}
