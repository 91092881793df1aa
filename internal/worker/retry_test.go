package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranemoloko/novel-downloader/internal/domain"
	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
)

// scriptedFetcher fails each locator a set number of times before succeeding.
// A negative count fails forever.
type scriptedFetcher struct {
	mu       sync.Mutex
	failures map[string]int
	calls    map[string]int
	delay    time.Duration
}

func newScriptedFetcher(failures map[string]int) *scriptedFetcher {
	if failures == nil {
		failures = map[string]int{}
	}
	return &scriptedFetcher{failures: failures, calls: map[string]int{}}
}

func (s *scriptedFetcher) Fetch(ctx context.Context, locator string) (string, string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", "", &errpkg.FetchError{Locator: locator, Err: ctx.Err()}
		}
	}

	s.mu.Lock()
	s.calls[locator]++
	n := s.calls[locator]
	left := s.failures[locator]
	s.mu.Unlock()

	if left < 0 || n <= left {
		return "", "", &errpkg.FetchError{
			Locator: locator,
			Err:     fmt.Errorf("%w: status 503", errpkg.ErrTransport),
		}
	}
	return "fetched " + locator, "text of " + locator, nil
}

func (s *scriptedFetcher) Calls(locator string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[locator]
}

func TestRetrier_SucceedsFirstAttempt(t *testing.T) {
	fetcher := newScriptedFetcher(nil)
	r := NewRetrier(fetcher, RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}, newTestLogger())

	c, ok := r.FetchWithRetry(NewToken(context.Background()), domain.Unit{Index: 4, Locator: "/c/4", Title: "第五章"})
	require.True(t, ok)
	assert.Equal(t, 4, c.Index)
	assert.Equal(t, "第五章", c.Title)
	assert.Equal(t, "\n\n第五章\n\ntext of /c/4\n", c.Content)
	assert.Equal(t, domain.UnitStateSucceeded, c.State)
	assert.Equal(t, 1, c.Attempts)
	assert.Equal(t, 1, fetcher.Calls("/c/4"))
}

func TestRetrier_FallsBackToExtractedTitle(t *testing.T) {
	r := NewRetrier(newScriptedFetcher(nil), DefaultRetryPolicy(), newTestLogger())

	c, ok := r.FetchWithRetry(NewToken(context.Background()), domain.Unit{Index: 0, Locator: "/c/0"})
	require.True(t, ok)
	assert.Equal(t, "fetched /c/0", c.Title)
}

func TestRetrier_RecoversAfterFailures(t *testing.T) {
	fetcher := newScriptedFetcher(map[string]int{"/c/3": 2})
	delay := 20 * time.Millisecond
	r := NewRetrier(fetcher, RetryPolicy{MaxAttempts: 3, Delay: delay}, newTestLogger())

	start := time.Now()
	c, ok := r.FetchWithRetry(NewToken(context.Background()), domain.Unit{Index: 3, Locator: "/c/3", Title: "t"})
	require.True(t, ok)

	assert.Equal(t, domain.UnitStateSucceeded, c.State)
	assert.Equal(t, 3, c.Attempts)
	assert.Equal(t, 3, fetcher.Calls("/c/3"))
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestRetrier_PlaceholderAfterLastAttempt(t *testing.T) {
	fetcher := newScriptedFetcher(map[string]int{"/c/1": -1})
	r := NewRetrier(fetcher, RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}, newTestLogger())

	c, ok := r.FetchWithRetry(NewToken(context.Background()), domain.Unit{Index: 1, Locator: "/c/1", Title: "第二章"})
	require.True(t, ok)

	assert.Equal(t, 3, fetcher.Calls("/c/1"))
	assert.Equal(t, domain.UnitStateFailedPlaceholder, c.State)
	assert.Equal(t, "第二章", c.Title)
	assert.Contains(t, c.Cause, "status 503")
	assert.True(t, strings.HasPrefix(c.Content, "\n\n第二章\n\n下载失败: "))
	assert.Contains(t, c.Content, "status 503")
	assert.True(t, strings.HasSuffix(c.Content, "\n\n"))
}

func TestRetrier_CancelledBeforeStart(t *testing.T) {
	fetcher := newScriptedFetcher(nil)
	r := NewRetrier(fetcher, DefaultRetryPolicy(), newTestLogger())

	token := NewToken(context.Background())
	token.Cancel()

	_, ok := r.FetchWithRetry(token, domain.Unit{Index: 0, Locator: "/c/0"})
	assert.False(t, ok)
	assert.Equal(t, 0, fetcher.Calls("/c/0"))
}

func TestRetrier_CancelDuringBackoff(t *testing.T) {
	fetcher := newScriptedFetcher(map[string]int{"/c/0": -1})
	r := NewRetrier(fetcher, RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Second}, newTestLogger())
	token := NewToken(context.Background())

	go func() {
		time.Sleep(30 * time.Millisecond)
		token.Cancel()
	}()

	start := time.Now()
	_, ok := r.FetchWithRetry(token, domain.Unit{Index: 0, Locator: "/c/0"})

	assert.False(t, ok)
	assert.Equal(t, 1, fetcher.Calls("/c/0"))
	assert.Less(t, time.Since(start), 2*time.Second)
}
