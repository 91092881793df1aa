package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrJobNotFound    = errors.New("job not found")
	ErrShuttingDown   = errors.New("service is shutting down")

	// ErrTransport covers network failures, timeouts and non-success responses.
	ErrTransport = errors.New("transport error")
	// ErrExtraction means the expected content container was absent from the page.
	ErrExtraction = errors.New("extraction error")
	// ErrEnumeration means the chapter list was absent or unparseable. Fatal to a job.
	ErrEnumeration = errors.New("enumeration error")
	// ErrIncomplete is returned by reassembly when an index slot was never filled.
	ErrIncomplete = errors.New("incomplete result")
)

// FetchError is the single failure shape of a unit fetch. Err wraps either
// ErrTransport or ErrExtraction.
type FetchError struct {
	Locator string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Locator, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Cause returns the human-readable cause without the locator prefix.
func (e *FetchError) Cause() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}
