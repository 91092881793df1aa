package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/veranemoloko/novel-downloader/internal/assembly"
	"github.com/veranemoloko/novel-downloader/internal/domain"
	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
	"github.com/veranemoloko/novel-downloader/internal/metrics"
)

// UnitFetcher is the single-attempt fetch wrapped by Retrier.
type UnitFetcher interface {
	Fetch(ctx context.Context, locator string) (title, body string, err error)
}

// RetryPolicy is a fixed attempt count with a fixed pause between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy is three attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second}
}

// Completion is the result of one unit leaving the pool.
type Completion struct {
	Index    int
	Title    string
	Content  string
	State    domain.UnitState
	Attempts int
	Cause    string
}

// Retrier wraps a UnitFetcher with RetryPolicy.
//
// FetchWithRetry never fails. When the last attempt fails it returns a
// placeholder chapter whose text names the failure, so the chapter shows up
// in the artifact as failed and the job carries on. Readers of the artifact
// see the failure inline; nothing upstream has to handle an error.
type Retrier struct {
	fetcher UnitFetcher
	policy  RetryPolicy
	logger  *slog.Logger
}

// NewRetrier creates a Retrier. A non-positive MaxAttempts is treated as 1.
func NewRetrier(fetcher UnitFetcher, policy RetryPolicy, logger *slog.Logger) *Retrier {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &Retrier{fetcher: fetcher, policy: policy, logger: logger}
}

// FetchWithRetry fetches unit, retrying up to the policy's attempt count.
// ok is false only when the token was cancelled; such a unit is abandoned and
// must not be counted or reassembled.
func (r *Retrier) FetchWithRetry(token *Token, unit domain.Unit) (Completion, bool) {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if token.Cancelled() {
			return Completion{}, false
		}

		metrics.UnitAttempts.Inc()
		start := time.Now()
		title, body, err := r.fetcher.Fetch(token.Context(), unit.Locator)
		metrics.FetchDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			if unit.Title != "" {
				title = unit.Title
			}
			return Completion{
				Index:    unit.Index,
				Title:    title,
				Content:  assembly.FormatBlock(title, body),
				State:    domain.UnitStateSucceeded,
				Attempts: attempt,
			}, true
		}

		if token.Cancelled() {
			return Completion{}, false
		}

		lastErr = err
		if attempt == r.policy.MaxAttempts {
			break
		}

		metrics.UnitRetries.Inc()
		r.logger.Warn("chapter fetch failed, retrying",
			"index", unit.Index,
			"title", unit.Title,
			"attempt", attempt,
			"max_attempts", r.policy.MaxAttempts,
			"error", err,
		)

		if !r.wait(token) {
			return Completion{}, false
		}
	}

	cause := causeOf(lastErr)
	metrics.UnitPlaceholders.Inc()
	r.logger.Error("chapter download failed",
		"index", unit.Index,
		"title", unit.Title,
		"locator", unit.Locator,
		"error", lastErr,
	)

	return Completion{
		Index:    unit.Index,
		Title:    unit.Title,
		Content:  assembly.FormatBlock(unit.Title, assembly.PlaceholderBody(cause)),
		State:    domain.UnitStateFailedPlaceholder,
		Attempts: r.policy.MaxAttempts,
		Cause:    cause,
	}, true
}

// wait sleeps for the policy delay and reports false if cancelled meanwhile.
func (r *Retrier) wait(token *Token) bool {
	if r.policy.Delay <= 0 {
		return !token.Cancelled()
	}

	timer := time.NewTimer(r.policy.Delay)
	defer timer.Stop()

	select {
	case <-token.Done():
		return false
	case <-timer.C:
		return true
	}
}

func causeOf(err error) string {
	var fe *errpkg.FetchError
	if errors.As(err, &fe) {
		return fe.Cause()
	}
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
