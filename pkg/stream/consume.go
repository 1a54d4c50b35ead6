package stream

import (
	"context"
	"errors"
)

// ErrStreamAborted reports that the event source terminated before a Done
// event was observed. The caller holds an incomplete result.
var ErrStreamAborted = errors.New("stream: source ended before done event")

// Handler receives decoded stream events in arrival order. Callbacks are
// invoked sequentially on the consuming goroutine and must not spawn
// concurrent work that could reorder output.
type Handler interface {
	OnTextDelta(text string)
	OnStepStarted(step StepStarted)
	OnDone()
}

// MalformedHandler is an optional extension for handlers that want to render
// a placeholder for undecodable events. Handlers without it skip them.
type MalformedHandler interface {
	OnMalformed(m Malformed)
}

// Consume folds a live event stream into the handler, one event at a time,
// in arrival order. It blocks until a Done event arrives, the channel closes,
// or ctx is cancelled.
//
// Done is delivered at most once and nothing is rendered after it. A closed
// channel without Done returns ErrStreamAborted. Cancellation stops rendering
// immediately; signalling the remote source is the caller's concern.
func Consume(ctx context.Context, events <-chan Event, h Handler) error {
	if ctx == nil {
		return errors.New("stream: context is nil")
	}
	if events == nil {
		return errors.New("stream: event channel is nil")
	}
	if h == nil {
		return errors.New("stream: handler is nil")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return ErrStreamAborted
			}
			switch e := evt.(type) {
			case TextDelta:
				h.OnTextDelta(e.Text)
			case StepStarted:
				h.OnStepStarted(e)
			case Done:
				h.OnDone()
				return nil
			case Malformed:
				if mh, ok := h.(MalformedHandler); ok {
					mh.OnMalformed(e)
				}
			default:
				// An Event implementation this package does not know about
				// is treated exactly like a malformed payload.
				if mh, ok := h.(MalformedHandler); ok {
					mh.OnMalformed(Malformed{Reason: "unknown event kind"})
				}
			}
		}
	}
}
