package domain

// JobStatus represents the current state of a download job.
type JobStatus string

const (
	JobStatusIdle         JobStatus = "idle"
	JobStatusEnumerating  JobStatus = "enumerating"
	JobStatusDispatching  JobStatus = "dispatching"
	JobStatusReassembling JobStatus = "reassembling"
	JobStatusWriting      JobStatus = "writing"
	JobStatusDone         JobStatus = "done"
	JobStatusCancelled    JobStatus = "cancelled"
	JobStatusFailed       JobStatus = "failed"
)

// Terminal reports whether no further transition can happen from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusCancelled || s == JobStatusFailed
}

// UnitState represents the terminal state of a single chapter.
type UnitState string

const (
	UnitStatePending           UnitState = "pending"
	UnitStateSucceeded         UnitState = "succeeded"
	UnitStateFailedPlaceholder UnitState = "failed_placeholder"
)

// OutcomeKind is the terminal result reported to callers.
type OutcomeKind string

const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeFailed    OutcomeKind = "failed"
)
