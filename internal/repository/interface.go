package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/veranemoloko/novel-downloader/internal/domain"
)

// JobRepo defines the interface for job history storage operations.
type JobRepo interface {
	CreateJob(ctx context.Context, job *domain.JobRecord) error
	GetJob(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error)
	UpdateJob(ctx context.Context, job *domain.JobRecord) error
	GetJobsByStatus(ctx context.Context, statuses ...domain.JobStatus) ([]*domain.JobRecord, error)
}
