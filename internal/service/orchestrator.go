package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/veranemoloko/novel-downloader/internal/assembly"
	"github.com/veranemoloko/novel-downloader/internal/domain"
	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
	"github.com/veranemoloko/novel-downloader/internal/metrics"
	"github.com/veranemoloko/novel-downloader/internal/progress"
	"github.com/veranemoloko/novel-downloader/internal/worker"
)

// ErrObserverLocked is returned by JobHandle.OnProgress when an observer is
// already installed or dispatch has begun.
var ErrObserverLocked = errors.New("progress observer can no longer be set")

// Parser reads both chapter pages and the novel's index page.
type Parser interface {
	worker.Extractor
	ListUnits(raw []byte) ([]domain.Unit, error)
}

// ArtifactWriter persists the reassembled novel.
type ArtifactWriter interface {
	WriteArtifact(name, author string, blocks []string) (string, int64, error)
}

// StatusFunc is told about every non-terminal status change along with
// the progress at that moment.
type StatusFunc func(status domain.JobStatus, current, total int)

// Options tunes an Orchestrator.
type Options struct {
	MaxWorkers   int
	Retry        worker.RetryPolicy
	FetchTimeout time.Duration
	// ProgressOutput receives a console progress bar for jobs started
	// without an observer. Nil disables the bar.
	ProgressOutput io.Writer
}

// StartRequest describes one novel to download.
type StartRequest struct {
	// ID is assigned when zero.
	ID         uuid.UUID
	Locator    string
	Name       string
	Author     string
	OnProgress progress.ObserverFunc
	OnStatus   StatusFunc
}

// Orchestrator runs download jobs: enumerate chapters, fetch them over a
// bounded pool, reassemble in order and write the artifact.
type Orchestrator struct {
	transport    worker.Transport
	parser       Parser
	writer       ArtifactWriter
	dispatcher   *worker.Dispatcher
	fetchTimeout time.Duration
	progressOut  io.Writer
	logger       *slog.Logger
}

// NewOrchestrator wires the fetch pipeline from its parts.
func NewOrchestrator(transport worker.Transport, parser Parser, writer ArtifactWriter, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = worker.DefaultRetryPolicy()
	}

	fetcher := worker.NewFetcher(transport, parser, opts.FetchTimeout, logger)
	retrier := worker.NewRetrier(fetcher, opts.Retry, logger)

	return &Orchestrator{
		transport:    transport,
		parser:       parser,
		writer:       writer,
		dispatcher:   worker.NewDispatcher(retrier, opts.MaxWorkers, logger),
		fetchTimeout: opts.FetchTimeout,
		progressOut:  opts.ProgressOutput,
		logger:       logger,
	}
}

// StartJob launches a job on its own goroutine and returns immediately.
// Cancelling ctx cancels the job the same way JobHandle.Cancel does.
func (o *Orchestrator) StartJob(ctx context.Context, req StartRequest) *JobHandle {
	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	h := &JobHandle{
		id:       id,
		token:    worker.NewToken(ctx),
		done:     make(chan struct{}),
		status:   domain.JobStatusIdle,
		observer: req.OnProgress,
		onStatus: req.OnStatus,
	}

	go o.run(h, req)
	return h
}

func (o *Orchestrator) run(h *JobHandle, req StartRequest) {
	logger := o.logger.With("job_id", h.id, "novel", req.Name)
	metrics.JobsStarted.Inc()
	logger.Info("job started", "locator", req.Locator)

	h.setStatus(domain.JobStatusEnumerating)
	units, err := o.enumerate(h.token.Context(), req.Locator)
	if h.token.Cancelled() {
		h.finish(domain.Cancelled(), logger)
		return
	}
	if err != nil {
		h.finish(domain.Failed(err), logger)
		return
	}
	logger.Info("chapters enumerated", "units", len(units))

	agg := h.beginDispatch(o.sinkFor(h, req), len(units))
	arena := assembly.New(len(units))

	o.dispatcher.Run(h.token, units, func(c worker.Completion) {
		if err := arena.Put(c.Index, c.Content); err != nil {
			logger.Error("discarding completion", "index", c.Index, "error", err)
			return
		}
		if c.State == domain.UnitStateFailedPlaceholder {
			h.failed.Add(1)
		}
		agg.OnUnitComplete()
	})
	agg.Close()

	if !h.beginReassembly() {
		arena.Discard()
		h.finish(domain.Cancelled(), logger)
		return
	}

	blocks, err := arena.Assemble()
	if err != nil {
		h.finish(domain.Failed(err), logger)
		return
	}

	h.setStatus(domain.JobStatusWriting)
	path, size, err := o.writer.WriteArtifact(req.Name, req.Author, blocks)
	if err != nil {
		h.finish(domain.Failed(fmt.Errorf("write artifact: %w", err)), logger)
		return
	}
	metrics.ArtifactBytes.Add(float64(size))

	h.finish(domain.Completed(path), logger)
}

func (o *Orchestrator) enumerate(ctx context.Context, locator string) ([]domain.Unit, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	raw, err := o.transport.FetchPage(fetchCtx, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch index %s: %w", errpkg.ErrEnumeration, locator, err)
	}

	units, err := o.parser.ListUnits(raw)
	if err != nil {
		if errors.Is(err, errpkg.ErrEnumeration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errpkg.ErrEnumeration, err)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: no chapters at %s", errpkg.ErrEnumeration, locator)
	}
	return units, nil
}

func (o *Orchestrator) sinkFor(h *JobHandle, req StartRequest) func() progress.Sink {
	return func() progress.Sink {
		if h.observer != nil {
			return progress.NewObserverSink(h.observer)
		}
		if o.progressOut != nil {
			return progress.NewConsoleSink(o.progressOut, req.Name)
		}
		return progress.NopSink{}
	}
}

// JobHandle is the caller's view of a running job.
type JobHandle struct {
	id    uuid.UUID
	token *worker.Token
	done  chan struct{}

	mu       sync.Mutex
	status   domain.JobStatus
	outcome  domain.Outcome
	observer progress.ObserverFunc
	agg      *progress.Aggregator
	total    int
	onStatus StatusFunc

	failed atomic.Int32
}

// ID identifies the job.
func (h *JobHandle) ID() uuid.UUID {
	return h.id
}

// Cancel requests cancellation. It is idempotent and has no effect once
// the job has started reassembling.
func (h *JobHandle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.status {
	case domain.JobStatusIdle, domain.JobStatusEnumerating, domain.JobStatusDispatching:
		h.token.Cancel()
	}
}

// OnProgress installs the progress observer. Only one observer may be set,
// and only before dispatch starts.
func (h *JobHandle) OnProgress(fn progress.ObserverFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.observer != nil || h.agg != nil || h.status.Terminal() {
		return ErrObserverLocked
	}
	h.observer = fn
	return nil
}

// Await blocks until the job reaches a terminal state or ctx is done.
func (h *JobHandle) Await(ctx context.Context) (domain.Outcome, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.outcome, nil
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	}
}

// Done is closed when the job reaches a terminal state.
func (h *JobHandle) Done() <-chan struct{} {
	return h.done
}

// Status returns the current lifecycle state.
func (h *JobHandle) Status() domain.JobStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Progress returns completed and total units. Total is zero until
// enumeration finishes.
func (h *JobHandle) Progress() (int, int) {
	h.mu.Lock()
	agg, total := h.agg, h.total
	h.mu.Unlock()

	if agg == nil {
		return 0, total
	}
	return agg.Snapshot()
}

// FailedUnits is the number of chapters written as placeholders.
func (h *JobHandle) FailedUnits() int {
	return int(h.failed.Load())
}

func (h *JobHandle) setStatus(s domain.JobStatus) {
	h.mu.Lock()
	h.status = s
	cb := h.onStatus
	h.mu.Unlock()

	h.notify(cb, s)
}

func (h *JobHandle) notify(cb StatusFunc, s domain.JobStatus) {
	if cb == nil {
		return
	}
	current, total := h.Progress()
	cb(s, current, total)
}

// beginDispatch fixes the sink and moves the job to Dispatching. newSink
// runs under the lock so the observer cannot change underneath it.
func (h *JobHandle) beginDispatch(newSink func() progress.Sink, total int) *progress.Aggregator {
	h.mu.Lock()
	agg := progress.NewAggregator(total, h.token, newSink())
	h.agg = agg
	h.total = total
	h.status = domain.JobStatusDispatching
	cb := h.onStatus
	h.mu.Unlock()

	h.notify(cb, domain.JobStatusDispatching)
	return agg
}

// beginReassembly moves the job past the point where Cancel has effect.
// It reports false if the job was cancelled first.
func (h *JobHandle) beginReassembly() bool {
	h.mu.Lock()
	if h.token.Cancelled() {
		h.mu.Unlock()
		return false
	}
	h.status = domain.JobStatusReassembling
	cb := h.onStatus
	h.mu.Unlock()

	h.notify(cb, domain.JobStatusReassembling)
	return true
}

func (h *JobHandle) finish(out domain.Outcome, logger *slog.Logger) {
	h.mu.Lock()
	h.outcome = out
	switch out.Kind {
	case domain.OutcomeCompleted:
		h.status = domain.JobStatusDone
	case domain.OutcomeCancelled:
		h.status = domain.JobStatusCancelled
	default:
		h.status = domain.JobStatusFailed
	}
	h.mu.Unlock()

	current, total := h.Progress()
	switch out.Kind {
	case domain.OutcomeCompleted:
		metrics.JobsCompleted.Inc()
		logger.Info("job completed", "path", out.Path, "units", total, "failed_units", h.FailedUnits())
	case domain.OutcomeCancelled:
		metrics.JobsCancelled.Inc()
		logger.Info("job cancelled", "completed", current, "total", total)
	default:
		metrics.JobsFailed.Inc()
		logger.Error("job failed", "error", out.Cause)
	}

	h.token.Release()
	close(h.done)
}
