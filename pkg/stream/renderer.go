package stream

import (
	"fmt"
	"io"
)

// flusher matches writers that buffer output (bufio.Writer and friends).
type flusher interface {
	Flush() error
}

// Renderer writes stream events to w as they arrive. Text fragments are
// written raw and flushed per event so partial tokens stay visible; there is
// no line buffering or aggregation.
type Renderer struct {
	w io.Writer
}

// NewRenderer builds a Renderer targeting w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

var (
	_ Handler          = (*Renderer)(nil)
	_ MalformedHandler = (*Renderer)(nil)
)

// OnTextDelta appends one fragment to the output, unbuffered.
func (r *Renderer) OnTextDelta(text string) {
	io.WriteString(r.w, text)
	r.flush()
}

// OnStepStarted renders a header for the step followed by one line per tool
// call. Statuses are the snapshot taken when the event was emitted; repeated
// reports of the same logical call each render independently.
func (r *Renderer) OnStepStarted(step StepStarted) {
	kind := step.StepKind
	if kind == "" {
		kind = PlaceholderStatus
	}
	fmt.Fprintf(r.w, "\n\n[tool step: %s]\n", kind)
	for _, call := range step.Calls {
		fmt.Fprintf(r.w, "  -> %s: %s\n", call.Label, call.Status)
	}
	r.flush()
}

// OnDone renders the terminal completion marker.
func (r *Renderer) OnDone() {
	io.WriteString(r.w, "\n\nagent run complete\n")
	r.flush()
}

// OnMalformed renders a placeholder for an event that could not be decoded.
func (r *Renderer) OnMalformed(m Malformed) {
	reason := m.Reason
	if reason == "" {
		reason = "unknown shape"
	}
	fmt.Fprintf(r.w, "\n[unreadable event: %s]\n", reason)
	r.flush()
}

func (r *Renderer) flush() {
	if f, ok := r.w.(flusher); ok {
		f.Flush()
	}
}
