package worker

import (
	"context"
	"sync/atomic"
)

// Token is a job's cancellation flag. It moves from live to cancelled at
// most once and is never reset; a new job gets a new Token.
//
// Checkpoints that consult the token: before a unit starts, before each
// retry attempt, and before a progress update is committed.
type Token struct {
	cancelled atomic.Bool
	released  atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	stopWatch func() bool
}

// NewToken derives a Token from parent. Cancelling parent cancels the token.
func NewToken(parent context.Context) *Token {
	ctx, cancel := context.WithCancel(parent)
	t := &Token{ctx: ctx, cancel: cancel}
	t.stopWatch = context.AfterFunc(ctx, func() {
		if !t.released.Load() {
			t.cancelled.Store(true)
		}
	})
	return t
}

// Cancel is idempotent and safe to call from any goroutine.
func (t *Token) Cancel() {
	t.cancelled.Store(true)
	t.cancel()
}

// Release detaches the token from its parent once the job has finished.
// The context ends, but a token that was never cancelled stays uncancelled.
func (t *Token) Release() {
	t.released.Store(true)
	t.stopWatch()
	t.cancel()
}

// Cancelled reports whether Cancel has been called or the parent ended
// before Release.
func (t *Token) Cancelled() bool {
	if t.cancelled.Load() {
		return true
	}
	return !t.released.Load() && t.ctx.Err() != nil
}

// Context is cancelled together with the token. Blocking I/O and retry
// sleeps select on it so they wake up promptly.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Done is shorthand for Context().Done().
func (t *Token) Done() <-chan struct{} {
	return t.ctx.Done()
}
