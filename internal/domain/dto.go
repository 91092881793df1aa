package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreateJobRequest represents the request body for starting a new download job.
type CreateJobRequest struct {
	Locator string `json:"locator" validate:"required,safe_url"`
	Name    string `json:"name" validate:"required,max=200"`
	Author  string `json:"author" validate:"required,max=100"`
}

// JobResponse represents the response returned for a job, including its progress and outcome.
type JobResponse struct {
	ID        uuid.UUID `json:"job_id"`
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

// NewJobResponse builds the API view of a job record.
func NewJobResponse(rec *JobRecord) JobResponse {
	return JobResponse{
		ID:        rec.ID,
		Name:      rec.Name,
		Author:    rec.Author,
		Status:    rec.Status,
		Completed: rec.Completed,
		Total:     rec.Total,
		Failed:    rec.Failed,
		Outcome:   rec.Outcome,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
