package worker

import (
	"context"
	"log/slog"
	"time"

	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
)

// Transport retrieves a raw page. Session state, if any, belongs to the implementation.
type Transport interface {
	FetchPage(ctx context.Context, locator string) ([]byte, error)
}

// Extractor pulls the chapter title and body text out of a raw page.
type Extractor interface {
	Extract(raw []byte) (title, body string, err error)
}

// Fetcher retrieves and extracts a single chapter.
type Fetcher struct {
	transport Transport
	extractor Extractor
	timeout   time.Duration
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher that bounds each request by timeout.
func NewFetcher(transport Transport, extractor Extractor, timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		transport: transport,
		extractor: extractor,
		timeout:   timeout,
		logger:    logger,
	}
}

// Fetch performs one request plus extraction. Every failure is returned as a
// *errors.FetchError; there is no partial success.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	raw, err := f.transport.FetchPage(ctx, locator)
	if err != nil {
		f.logger.Debug("chapter request failed", "locator", locator, "error", err)
		return "", "", &errpkg.FetchError{Locator: locator, Err: err}
	}

	title, body, err := f.extractor.Extract(raw)
	if err != nil {
		f.logger.Debug("chapter extraction failed", "locator", locator, "error", err)
		return "", "", &errpkg.FetchError{Locator: locator, Err: err}
	}

	return title, body, nil
}
