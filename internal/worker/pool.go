package worker

import (
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/veranemoloko/novel-downloader/internal/domain"
)

// DefaultMaxWorkers caps the pool regardless of job size.
const DefaultMaxWorkers = 20

// PoolSize is min(maxWorkers, units), never below 1.
func PoolSize(maxWorkers, units int) int {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	n := min(maxWorkers, units)
	if n < 1 {
		return 1
	}
	return n
}

// Dispatcher runs retry-wrapped fetches over a bounded pool.
type Dispatcher struct {
	retrier    *Retrier
	maxWorkers int
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher whose pool never exceeds maxWorkers.
func NewDispatcher(retrier *Retrier, maxWorkers int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{retrier: retrier, maxWorkers: maxWorkers, logger: logger}
}

// Run submits every unit in order and calls handle once per completion, in
// arrival order, on the calling goroutine. Admission is FIFO: the next
// queued unit starts as soon as a slot frees.
//
// Run returns true when every submitted unit produced a completion. On
// cancellation it stops admitting units and returns false immediately;
// in-flight fetches exit at their own checkpoints and their results are
// dropped.
func (d *Dispatcher) Run(token *Token, units []domain.Unit, handle func(Completion)) bool {
	if len(units) == 0 {
		return !token.Cancelled()
	}

	size := PoolSize(d.maxWorkers, len(units))
	d.logger.Debug("dispatching units", "units", len(units), "pool_size", size)

	// Buffered to len(units) so a straggler finishing after Run returned never blocks.
	results := make(chan Completion, len(units))

	go func() {
		var g errgroup.Group
		g.SetLimit(size)

		for _, u := range units {
			if token.Cancelled() {
				break
			}
			g.Go(func() error {
				if c, ok := d.retrier.FetchWithRetry(token, u); ok {
					results <- c
				}
				return nil
			})
		}

		_ = g.Wait()
		close(results)
	}()

	delivered := 0
	for {
		select {
		case <-token.Done():
			d.logger.Debug("dispatch cancelled", "delivered", delivered, "units", len(units))
			return false
		case c, ok := <-results:
			if !ok {
				return delivered == len(units) && !token.Cancelled()
			}
			handle(c)
			delivered++
		}
	}
}
