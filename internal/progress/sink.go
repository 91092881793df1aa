package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Sink receives progress updates for a single job. Updates arrive
// serialised and with strictly increasing current values.
type Sink interface {
	Begin(total int)
	Update(current, total int)
	End()
}

// ObserverFunc is a caller-supplied progress callback.
type ObserverFunc func(current, total int)

// ObserverSink forwards updates to a callback and draws nothing.
type ObserverSink struct {
	fn ObserverFunc
}

// NewObserverSink wraps fn as a Sink.
func NewObserverSink(fn ObserverFunc) *ObserverSink {
	return &ObserverSink{fn: fn}
}

// Begin is a no-op; the callback only sees updates.
func (s *ObserverSink) Begin(int) {}

// Update calls the wrapped callback.
func (s *ObserverSink) Update(current, total int) {
	s.fn(current, total)
}

// End is a no-op.
func (s *ObserverSink) End() {}

// ConsoleSink draws a terminal progress bar labelled with the novel name.
type ConsoleSink struct {
	w    io.Writer
	name string
	bar  *progressbar.ProgressBar
}

// NewConsoleSink creates a ConsoleSink that draws to w once Begin is called.
func NewConsoleSink(w io.Writer, name string) *ConsoleSink {
	return &ConsoleSink{w: w, name: name}
}

// Begin creates the bar sized to total.
func (s *ConsoleSink) Begin(total int) {
	s.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionSetDescription(fmt.Sprintf("下载《%s》", s.name)),
		progressbar.OptionSetItsString("章"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(s.w)
		}),
	)
}

// Update moves the bar to current.
func (s *ConsoleSink) Update(current, _ int) {
	if s.bar == nil {
		return
	}
	_ = s.bar.Set(current)
}

// End finishes the bar and leaves the cursor on a fresh line.
func (s *ConsoleSink) End() {
	if s.bar == nil {
		return
	}
	_ = s.bar.Exit()
}

// NopSink discards every update.
type NopSink struct{}

func (NopSink) Begin(int)       {}
func (NopSink) Update(int, int) {}
func (NopSink) End()            {}
