package domain

import (
	"time"

	"github.com/google/uuid"
)

// Unit is one chapter of a novel. Index is assigned at enumeration time and
// alone defines the chapter's position in the artifact.
type Unit struct {
	Index   int       `json:"index"`
	Locator string    `json:"locator"`
	Title   string    `json:"title"`
	Content string    `json:"-"`
	State   UnitState `json:"state"`
}

// Novel is one search hit from the remote source.
type Novel struct {
	Name    string `json:"name"`
	Author  string `json:"author"`
	Locator string `json:"locator"`
}

// Outcome is the terminal result of a job.
type Outcome struct {
	Kind  OutcomeKind `json:"kind"`
	Path  string      `json:"path,omitempty"`
	Cause string      `json:"cause,omitempty"`
}

func Completed(path string) Outcome { return Outcome{Kind: OutcomeCompleted, Path: path} }
func Cancelled() Outcome           { return Outcome{Kind: OutcomeCancelled} }
func Failed(cause error) Outcome {
	return Outcome{Kind: OutcomeFailed, Cause: cause.Error()}
}

// JobRecord is the persisted summary of one download job.
type JobRecord struct {
	ID        uuid.UUID `json:"id"`
	Locator   string    `json:"locator"`
	Name      string    `json:"name"`
	Author    string    `json:"author"`
	Status    JobStatus `json:"status"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Failed    int       `json:"failed_units"`
	Outcome   *Outcome  `json:"outcome,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
