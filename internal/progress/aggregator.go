package progress

import (
	"sync"
	"sync/atomic"
)

// Canceller reports whether the owning job was cancelled.
type Canceller interface {
	Cancelled() bool
}

// Aggregator counts completed units for one job and feeds a single Sink.
type Aggregator struct {
	mu sync.Mutex
	// written under mu, read without it so sinks may call Snapshot
	current atomic.Int64
	total   int
	token   Canceller
	sink    Sink
	closed  bool
}

// NewAggregator starts counting towards total. A nil sink discards updates.
func NewAggregator(total int, token Canceller, sink Sink) *Aggregator {
	if sink == nil {
		sink = NopSink{}
	}
	sink.Begin(total)
	return &Aggregator{total: total, token: token, sink: sink}
}

// OnUnitComplete records one more completed unit. It reports false and
// changes nothing once the job is cancelled or the aggregator is closed.
func (a *Aggregator) OnUnitComplete() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.token.Cancelled() || int(a.current.Load()) >= a.total {
		return false
	}

	n := int(a.current.Add(1))
	a.sink.Update(n, a.total)
	return true
}

// Snapshot returns the current counter and total.
func (a *Aggregator) Snapshot() (int, int) {
	return int(a.current.Load()), a.total
}

// Close stops further updates and releases the sink. Safe to call twice.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.closed = true
	a.sink.End()
}
