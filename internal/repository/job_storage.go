package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veranemoloko/novel-downloader/internal/domain"
	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
)

// JobStorage keeps job records in memory and mirrors them to a JSON file.
// Records are copied on the way in and out, so callers never share state
// with the store.
type JobStorage struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.JobRecord
	file string
	// serialises whole-file writes
	writeMu sync.Mutex
}

// NewJobStorage creates a JobStorage and loads records from the file if it exists.
func NewJobStorage(filePath string) (*JobStorage, error) {
	repo := &JobStorage{
		jobs: make(map[uuid.UUID]*domain.JobRecord),
		file: filepath.Clean(filePath),
	}

	if err := repo.restoreJobs(); err != nil {
		return nil, fmt.Errorf("failed to load state from file: %w", err)
	}

	slog.Info("Job repository initialized", "file_path", repo.file, "jobs_count", len(repo.jobs))
	return repo, nil
}

func (r *JobStorage) restoreJobs() error {
	data, err := os.ReadFile(r.file)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("State file does not exist, starting with empty state", "file_path", r.file)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if len(data) == 0 {
		slog.Warn("State file is empty")
		return nil
	}

	var jobs []*domain.JobRecord
	if err := json.Unmarshal(data, &jobs); err != nil {
		return fmt.Errorf("failed to unmarshal state file: %w", err)
	}

	for _, job := range jobs {
		r.jobs[job.ID] = job
	}

	slog.Info("State loaded from file", "jobs_count", len(jobs), "file_path", r.file)
	return nil
}

func (r *JobStorage) persistJobs() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	jobs := make([]*domain.JobRecord, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	slices.SortFunc(jobs, func(a, b *domain.JobRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	data, err := json.MarshalIndent(jobs, "", "  ")
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal jobs: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.file), 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	tempFile := r.file + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, r.file); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	slog.Debug("State saved to file", "jobs_count", len(jobs), "file_path", r.file)
	return nil
}

func clone(job *domain.JobRecord) *domain.JobRecord {
	c := *job
	if job.Outcome != nil {
		o := *job.Outcome
		c.Outcome = &o
	}
	return &c
}

// CreateJob adds a new job record and persists it to the file.
func (r *JobStorage) CreateJob(ctx context.Context, job *domain.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	r.mu.Lock()
	r.jobs[job.ID] = clone(job)
	r.mu.Unlock()

	if err := r.persistJobs(); err != nil {
		return fmt.Errorf("failed to save state after creating job: %w", err)
	}

	slog.Debug("Job created and saved", "job_id", job.ID)
	return nil
}

// GetJob retrieves a copy of a job record by ID.
func (r *JobStorage) GetJob(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	job, exists := r.jobs[id]
	r.mu.RUnlock()

	if !exists {
		return nil, errpkg.ErrJobNotFound
	}
	return clone(job), nil
}

// UpdateJob replaces an existing job record and persists it to the file.
func (r *JobStorage) UpdateJob(ctx context.Context, job *domain.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if _, exists := r.jobs[job.ID]; !exists {
		r.mu.Unlock()
		return errpkg.ErrJobNotFound
	}
	job.UpdatedAt = time.Now()
	r.jobs[job.ID] = clone(job)
	r.mu.Unlock()

	if err := r.persistJobs(); err != nil {
		return fmt.Errorf("failed to save state after updating job: %w", err)
	}

	slog.Debug("Job updated and saved", "job_id", job.ID, "status", job.Status)
	return nil
}

// GetJobsByStatus returns copies of all job records in any of the given statuses.
func (r *JobStorage) GetJobsByStatus(ctx context.Context, statuses ...domain.JobStatus) ([]*domain.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var filtered []*domain.JobRecord
	for _, job := range r.jobs {
		if slices.Contains(statuses, job.Status) {
			filtered = append(filtered, clone(job))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(filtered, func(a, b *domain.JobRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return filtered, nil
}
