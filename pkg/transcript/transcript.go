// Package transcript persists run streams as JSONL so a run can be replayed
// later without contacting the platform.
package transcript

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cexll/foundrykit/pkg/stream"
)

var errRecorderClosed = errors.New("transcript: recorder closed")

// record is one transcript line. Event holds the raw payload so unknown
// kinds written by newer versions are skipped on replay instead of failing.
type record struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"ts"`
	Kind      stream.Kind     `json:"kind"`
	Event     json.RawMessage `json:"event"`
}

// Recorder tees every event to a JSONL file before forwarding it to the
// wrapped handler. Write failures are remembered and surfaced by Close so a
// bad disk never interrupts live rendering.
type Recorder struct {
	mu       sync.Mutex
	file     *os.File
	next     stream.Handler
	writeErr error
}

// NewRecorder opens (or creates) the transcript at path, creating parent
// directories as needed.
func NewRecorder(path string, next stream.Handler) (*Recorder, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("transcript: path is empty")
	}
	if next == nil {
		return nil, errors.New("transcript: handler is nil")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("transcript: create dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("transcript: open: %w", err)
	}
	return &Recorder{file: file, next: next}, nil
}

func (r *Recorder) OnTextDelta(text string) {
	r.append(stream.TextDelta{Text: text})
	r.next.OnTextDelta(text)
}

func (r *Recorder) OnStepStarted(step stream.StepStarted) {
	r.append(step)
	r.next.OnStepStarted(step)
}

func (r *Recorder) OnDone() {
	r.append(stream.Done{})
	r.next.OnDone()
}

func (r *Recorder) OnMalformed(m stream.Malformed) {
	r.append(m)
	if mh, ok := r.next.(stream.MalformedHandler); ok {
		mh.OnMalformed(m)
	}
}

// Close flushes the transcript and reports the first write error, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return r.writeErr
	}
	err := r.file.Close()
	r.file = nil
	if r.writeErr != nil {
		return r.writeErr
	}
	return err
}

func (r *Recorder) append(ev stream.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.recordErr(fmt.Errorf("transcript: marshal event: %w", err))
		return
	}
	data, err := json.Marshal(record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Kind:      ev.Kind(),
		Event:     payload,
	})
	if err != nil {
		r.recordErr(fmt.Errorf("transcript: marshal record: %w", err))
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		r.recordErrLocked(errRecorderClosed)
		return
	}
	if _, err := r.file.Write(append(data, '\n')); err != nil {
		r.recordErrLocked(fmt.Errorf("transcript: append: %w", err))
	}
}

func (r *Recorder) recordErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordErrLocked(err)
}

func (r *Recorder) recordErrLocked(err error) {
	if r.writeErr == nil {
		r.writeErr = err
	}
}

// Replay reads a transcript and dispatches its events to h with the same
// semantics as a live run: consumption stops at the done marker, and a
// transcript that ends without one reports stream.ErrStreamAborted. Lines
// that fail to parse are skipped.
func Replay(ctx context.Context, path string, h stream.Handler) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("transcript: open: %w", err)
	}
	defer f.Close()

	events := make(chan stream.Event, 64)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			ev, ok := decodeRecord(line)
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
			if _, done := ev.(stream.Done); done {
				return
			}
		}
	}()

	return stream.Consume(ctx, events, h)
}

func decodeRecord(line []byte) (stream.Event, bool) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, false
	}
	switch rec.Kind {
	case stream.KindTextDelta:
		var ev stream.TextDelta
		if err := json.Unmarshal(rec.Event, &ev); err != nil {
			return nil, false
		}
		return ev, true
	case stream.KindStepStarted:
		var ev stream.StepStarted
		if err := json.Unmarshal(rec.Event, &ev); err != nil {
			return nil, false
		}
		return ev, true
	case stream.KindDone:
		return stream.Done{}, true
	case stream.KindMalformed:
		var ev stream.Malformed
		if err := json.Unmarshal(rec.Event, &ev); err != nil {
			return nil, false
		}
		return ev, true
	}
	return nil, false
}
