package domain

import "github.com/google/uuid"

// Trigger is the input to one worker run.
type Trigger struct {
	// IsFirstSync selects full-range pull mode: seed the local store
	// from remote history without pushing anything.
	IsFirstSync bool

	// PullForQuest makes the quest worker additionally pull this
	// quest's canonical remote state (remote wins). Quest worker only.
	PullForQuest uuid.UUID
}

// RunResult reports what one worker run did.
type RunResult struct {
	Pushed  int
	Pulled  int
	Skipped int // rows left dirty after a per-row remote failure

	// Retry marks the failure as transient; the scheduler applies
	// exponential backoff and runs again.
	Retry bool
	Err   error
}

// Failed reports whether the run ended in an unrecoverable state.
func (r RunResult) Failed() bool { return r.Err != nil }

// RetryableResult wraps a transient failure.
func RetryableResult(err error) RunResult {
	return RunResult{Retry: true, Err: err}
}
