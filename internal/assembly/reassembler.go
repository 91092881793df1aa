package assembly

import (
	"fmt"
	"sync"

	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
)

// Reassembler collects unit contents that arrive in any order and hands
// them back in index order.
type Reassembler struct {
	mu     sync.Mutex
	slots  []string
	filled []bool
	count  int
}

// New creates a Reassembler with room for exactly n units.
func New(n int) *Reassembler {
	return &Reassembler{
		slots:  make([]string, n),
		filled: make([]bool, n),
	}
}

// Put stores content at index. Each index may be written once.
func (r *Reassembler) Put(index int, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.slots) {
		return fmt.Errorf("index %d out of range [0,%d)", index, len(r.slots))
	}
	if r.filled[index] {
		return fmt.Errorf("index %d already filled", index)
	}

	r.slots[index] = content
	r.filled[index] = true
	r.count++
	return nil
}

// Len returns how many slots have been filled.
func (r *Reassembler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Assemble returns every slot in index order. A gap anywhere yields
// ErrIncomplete naming the first missing index.
func (r *Reassembler) Assemble() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, ok := range r.filled {
		if !ok {
			return nil, fmt.Errorf("%w: unit %d missing (%d of %d filled)", errpkg.ErrIncomplete, i, r.count, len(r.slots))
		}
	}

	out := make([]string, len(r.slots))
	copy(out, r.slots)
	return out, nil
}

// Discard drops everything collected so far.
func (r *Reassembler) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots = nil
	r.filled = nil
	r.count = 0
}
