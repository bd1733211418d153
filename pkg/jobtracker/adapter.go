package jobtracker

import "context"

// JobState is the two-valued job state the spec requires the adapter
// answer in a single batched query: whether the scheduler still
// considers the job alive, and whether it ended by timing out.
type JobState struct {
	Alive    bool
	TimedOut bool
}

// CancelResult is the three-valued outcome of a cancel request,
// mapped to true/false/false by the caller per §5 "Cancellation".
type CancelResult int

const (
	CancelOK CancelResult = iota
	CancelError
	CancelUnknown
)

// Adapter is the injected Scheduler Adapter: it can render a launch
// script, submit it, query batched job states, and cancel jobs. The
// concrete scheduler (a hierarchical broker, a local subprocess
// runner, whatever) is irrelevant to the tracker.
type Adapter interface {
	// WriteScript renders the final launch script for a single bundle,
	// given the already-resolved command body (see Command).
	WriteScript(ctx context.Context, workspace string, bundle []string, script string) (string, error)

	// Submit submits a rendered script and returns the scheduler's job
	// identifier, or an error if submission failed outright.
	Submit(ctx context.Context, workspace string, renderedScript string, bundle []string) (jobID string, err error)

	// CheckJobs performs one batched state query. A nil map with a
	// non-nil error (or ErrCannotClassify) means "NoJobs" or "Error"
	// from the scheduler: callers must leave the running set intact
	// for the next tick rather than reclaim on uncertainty.
	CheckJobs(ctx context.Context, jobIDs []string) (map[string]JobState, error)

	// CancelJobs requests cancellation of the given jobs. Must
	// tolerate already-dead jobs (idempotent).
	CancelJobs(ctx context.Context, jobIDs []string) (CancelResult, error)
}

// ErrCannotClassify is the sentinel CheckJobs returns when the
// scheduler could not be queried (NoJobs/Error in the source's
// vocabulary) — ticks that see this leave running jobs untouched.
var ErrCannotClassify = errCannotClassify{}

type errCannotClassify struct{}

func (errCannotClassify) Error() string { return "jobtracker: adapter could not classify jobs" }
