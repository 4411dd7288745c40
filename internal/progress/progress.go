// Package progress renders a decorative chunk-progress indicator on the
// terminal while the pipeline blocks on oracle calls.
//
// The renderer is a disposable component with a strict start/stop
// lifecycle: [Tracker.Stop] always joins the render goroutine before
// returning, and none of the pipeline's data or timing depends on it. When
// stderr is not a terminal the tracker is a no-op.
package progress

import (
	"io"
	"os"
	"time"

	pretty "github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
)

// Option is a functional option for configuring a [Tracker].
type Option func(*Tracker)

// WithOutput redirects the renderer's output. Default: os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(t *Tracker) {
		t.out = w
	}
}

// WithForceEnabled bypasses the terminal check. Intended for tests.
func WithForceEnabled() Option {
	return func(t *Tracker) {
		t.enabled = true
	}
}

// Tracker drives one progress bar over a fixed number of units of work.
type Tracker struct {
	out     io.Writer
	enabled bool
	writer  pretty.Writer
	tracker *pretty.Tracker
	done    chan struct{}
}

// New creates a [Tracker] for total units with the given label. The tracker
// is enabled only when stderr is a terminal (or [WithForceEnabled] is set).
func New(label string, total int64, opts ...Option) *Tracker {
	t := &Tracker{
		out:     os.Stderr,
		enabled: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
	for _, o := range opts {
		o(t)
	}
	if !t.enabled {
		return t
	}

	pw := pretty.NewWriter()
	pw.SetOutputWriter(t.out)
	pw.SetTrackerLength(25)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetAutoStop(false)

	t.writer = pw
	t.tracker = &pretty.Tracker{Message: label, Total: total}
	return t
}

// Start begins rendering in a background goroutine. Calling Start on a
// disabled tracker is a no-op.
func (t *Tracker) Start() {
	if !t.enabled {
		return
	}
	t.writer.AppendTracker(t.tracker)
	t.done = make(chan struct{})
	go func() {
		defer close(t.done)
		t.writer.Render()
	}()
}

// Increment advances the bar by one unit.
func (t *Tracker) Increment() {
	if t.enabled {
		t.tracker.Increment(1)
	}
}

// Stop marks the tracker done, stops the renderer, and joins the render
// goroutine. Safe to call on a disabled or never-started tracker.
func (t *Tracker) Stop() {
	if !t.enabled || t.done == nil {
		return
	}
	t.tracker.MarkAsDone()
	t.writer.Stop()
	<-t.done
}
