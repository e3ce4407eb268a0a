package usecase

import "time"

const (
	// DefaultCommitMaxAttempts bounds retries of a throttled atomic commit.
	DefaultCommitMaxAttempts = 3
	// DefaultCommitRetryDelay is the fixed pause between throttled commits.
	DefaultCommitRetryDelay = 500 * time.Millisecond

	// DefaultConflictMaxAttempts bounds full read-validate-commit cycles
	// restarted because a balance changed underneath us.
	DefaultConflictMaxAttempts = 5
	DefaultConflictInitialWait = 50 * time.Millisecond
	DefaultConflictMaxWait     = 1 * time.Second

	// DefaultStatusWriteMaxAttempts bounds idempotency status writes.
	DefaultStatusWriteMaxAttempts = 3
	DefaultStatusWriteRetryDelay  = 500 * time.Millisecond

	// statusWriteGrace is added on top of the retry budget when detaching a
	// status write from the caller's context.
	statusWriteGrace = 5 * time.Second
)

// Transfer outcomes reported to Metrics.
const (
	OutcomeApplied  = "applied"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeError    = "error"
)

// RetryPolicy bounds every blocking retry of the transfer protocol.
type RetryPolicy struct {
	CommitMaxAttempts      int
	CommitRetryDelay       time.Duration
	ConflictMaxAttempts    int
	ConflictInitialWait    time.Duration
	ConflictMaxWait        time.Duration
	StatusWriteMaxAttempts int
	StatusWriteRetryDelay  time.Duration
}

// DefaultRetryPolicy returns the production retry bounds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		CommitMaxAttempts:      DefaultCommitMaxAttempts,
		CommitRetryDelay:       DefaultCommitRetryDelay,
		ConflictMaxAttempts:    DefaultConflictMaxAttempts,
		ConflictInitialWait:    DefaultConflictInitialWait,
		ConflictMaxWait:        DefaultConflictMaxWait,
		StatusWriteMaxAttempts: DefaultStatusWriteMaxAttempts,
		StatusWriteRetryDelay:  DefaultStatusWriteRetryDelay,
	}
}

// withDefaults fills unset fields from DefaultRetryPolicy.
func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.CommitMaxAttempts <= 0 {
		p.CommitMaxAttempts = d.CommitMaxAttempts
	}
	if p.CommitRetryDelay < 0 {
		p.CommitRetryDelay = d.CommitRetryDelay
	}
	if p.ConflictMaxAttempts <= 0 {
		p.ConflictMaxAttempts = d.ConflictMaxAttempts
	}
	if p.ConflictInitialWait <= 0 {
		p.ConflictInitialWait = d.ConflictInitialWait
	}
	if p.ConflictMaxWait < p.ConflictInitialWait {
		p.ConflictMaxWait = p.ConflictInitialWait
	}
	if p.StatusWriteMaxAttempts <= 0 {
		p.StatusWriteMaxAttempts = d.StatusWriteMaxAttempts
	}
	if p.StatusWriteRetryDelay < 0 {
		p.StatusWriteRetryDelay = d.StatusWriteRetryDelay
	}
	return p
}
