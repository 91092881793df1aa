package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/veranemoloko/novel-downloader/internal/domain"
	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
	repo "github.com/veranemoloko/novel-downloader/internal/repository"
)

// ErrInterrupted is the failure cause recorded for jobs a previous process
// left unfinished.
var ErrInterrupted = errors.New("interrupted by restart")

// Searcher looks novels up by keyword.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]domain.Novel, error)
}

// JobService keeps track of jobs started over the API and records their
// history through a JobRepo.
type JobService struct {
	jobRepo  repo.JobRepo
	orch     *Orchestrator
	searcher Searcher
	logger   *slog.Logger

	// parent of every job's context; cancelled on shutdown
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	active  map[uuid.UUID]*JobHandle
	closing bool
	wg      sync.WaitGroup
}

func NewJobService(jobRepo repo.JobRepo, orch *Orchestrator, searcher Searcher, logger *slog.Logger) *JobService {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobService{
		jobRepo:    jobRepo,
		orch:       orch,
		searcher:   searcher,
		logger:     logger,
		baseCtx:    ctx,
		baseCancel: cancel,
		active:     make(map[uuid.UUID]*JobHandle),
	}
}

// Start records a new job and launches it.
func (s *JobService) Start(ctx context.Context, req *domain.CreateJobRequest) (*domain.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return nil, errpkg.ErrShuttingDown
	}

	rec := &domain.JobRecord{
		ID:      uuid.New(),
		Locator: req.Locator,
		Name:    req.Name,
		Author:  req.Author,
		Status:  domain.JobStatusIdle,
	}
	if err := s.jobRepo.CreateJob(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	id := rec.ID
	h := s.orch.StartJob(s.baseCtx, StartRequest{
		ID:      id,
		Locator: req.Locator,
		Name:    req.Name,
		Author:  req.Author,
		OnStatus: func(status domain.JobStatus, current, total int) {
			s.recordStatus(id, status, current, total)
		},
	})
	s.active[id] = h

	s.wg.Add(1)
	go s.watch(h)

	s.logger.Info("job accepted", "job_id", id, "novel", req.Name, "author", req.Author)
	return rec, nil
}

func (s *JobService) recordStatus(id uuid.UUID, status domain.JobStatus, current, total int) {
	ctx := context.Background()
	rec, err := s.jobRepo.GetJob(ctx, id)
	if err != nil {
		s.logger.Error("failed to load job for status update", "job_id", id, "error", err)
		return
	}

	rec.Status = status
	rec.Completed = current
	rec.Total = total
	if err := s.jobRepo.UpdateJob(ctx, rec); err != nil {
		s.logger.Error("failed to persist job status", "job_id", id, "status", status, "error", err)
	}
}

// watch persists the terminal state of h and drops it from the active set.
func (s *JobService) watch(h *JobHandle) {
	defer s.wg.Done()

	out, _ := h.Await(context.Background())
	current, total := h.Progress()

	ctx := context.Background()
	rec, err := s.jobRepo.GetJob(ctx, h.ID())
	if err == nil {
		rec.Status = h.Status()
		rec.Completed = current
		rec.Total = total
		rec.Failed = h.FailedUnits()
		rec.Outcome = &out
		err = s.jobRepo.UpdateJob(ctx, rec)
	}
	if err != nil {
		s.logger.Error("failed to persist job outcome", "job_id", h.ID(), "error", err)
	}

	s.mu.Lock()
	delete(s.active, h.ID())
	s.mu.Unlock()
}

// Get returns the job record, with live progress for running jobs.
func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	rec, err := s.jobRepo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	h, ok := s.active[id]
	s.mu.Unlock()

	if ok && !rec.Status.Terminal() {
		rec.Status = h.Status()
		rec.Completed, rec.Total = h.Progress()
		rec.Failed = h.FailedUnits()
	}
	return rec, nil
}

// Cancel requests cancellation of a running job. Cancelling a finished
// job is a no-op.
func (s *JobService) Cancel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	h, ok := s.active[id]
	s.mu.Unlock()

	if ok {
		h.Cancel()
		s.logger.Info("job cancellation requested", "job_id", id)
		return nil
	}

	if _, err := s.jobRepo.GetJob(ctx, id); err != nil {
		return err
	}
	return nil
}

// Search forwards to the remote source. A blank keyword yields no results.
func (s *JobService) Search(ctx context.Context, keyword string) ([]domain.Novel, error) {
	if strings.TrimSpace(keyword) == "" {
		return []domain.Novel{}, nil
	}
	return s.searcher.Search(ctx, keyword)
}

// RecoverInterrupted marks jobs left non-terminal by a previous process as
// failed. They are not restarted.
func (s *JobService) RecoverInterrupted(ctx context.Context) error {
	stale, err := s.jobRepo.GetJobsByStatus(ctx,
		domain.JobStatusIdle,
		domain.JobStatusEnumerating,
		domain.JobStatusDispatching,
		domain.JobStatusReassembling,
		domain.JobStatusWriting,
	)
	if err != nil {
		return fmt.Errorf("failed to list unfinished jobs: %w", err)
	}

	for _, rec := range stale {
		out := domain.Failed(ErrInterrupted)
		rec.Status = domain.JobStatusFailed
		rec.Outcome = &out
		if err := s.jobRepo.UpdateJob(ctx, rec); err != nil {
			return fmt.Errorf("failed to mark job %s interrupted: %w", rec.ID, err)
		}
		s.logger.Warn("job interrupted by restart", "job_id", rec.ID, "novel", rec.Name)
	}
	return nil
}

// Shutdown stops accepting jobs, cancels the running ones and waits for
// their outcomes to be recorded.
func (s *JobService) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down job service")

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.baseCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("job service shutdown completed")
		return nil
	case <-ctx.Done():
		s.logger.Warn("job service shutdown timed out")
		return ctx.Err()
	}
}
