package foundry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cexll/foundrykit/pkg/stream"
	"github.com/cexll/foundrykit/pkg/telemetry"
)

const (
	eventMessageDelta = "thread.message.delta"
	eventRunFailed    = "thread.run.failed"
	eventDone         = "done"
	runStepPrefix     = "thread.run.step."

	// streamBuffer keeps the SSE reader ahead of a slow handler without
	// unbounded growth.
	streamBuffer = 64
)

// RunError is a run that the platform reported as failed mid-stream.
type RunError struct {
	Code    string
	Message string
}

func (e *RunError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("foundry: run failed: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("foundry: run failed: %s", e.Message)
}

// StreamRun starts a run of agentID on threadID and blocks, dispatching
// decoded events to h until the run completes. A stream that ends without a
// terminal done event surfaces stream.ErrStreamAborted, unless the platform
// reported the run failed, in which case the RunError wins.
func (c *Client) StreamRun(ctx context.Context, threadID, agentID string, h stream.Handler) (err error) {
	if threadID == "" || agentID == "" {
		return fmt.Errorf("foundry: thread id and agent id are required")
	}
	ctx, span := telemetry.StartSpan(ctx, "foundry.stream_run",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("foundry.thread_id", threadID),
			attribute.String("foundry.agent_id", agentID),
		),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := struct {
		AssistantID string `json:"assistant_id"`
		Stream      bool   `json:"stream"`
	}{AssistantID: agentID, Stream: true}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return fmt.Errorf("foundry: encode run request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/runs", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("foundry: start run: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return readAPIError(resp)
	}

	events := make(chan stream.Event, streamBuffer)
	feedDone := make(chan struct{})
	var runErr *RunError

	go func() {
		defer close(feedDone)
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		var name, data string
		flush := func() bool {
			defer func() { name, data = "", "" }()
			if data == "" {
				return true
			}
			ev, failure := decodeRunEvent(name, data)
			if failure != nil {
				runErr = failure
				return false
			}
			if ev == nil {
				return true
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return false
			}
			_, done := ev.(stream.Done)
			return !done
		}
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if !flush() {
					return
				}
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				if data != "" {
					data += "\n"
				}
				data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
		flush()
	}()

	consumeErr := stream.Consume(ctx, events, h)
	cancel()
	<-feedDone

	if runErr != nil {
		return runErr
	}
	return consumeErr
}

// decodeRunEvent maps one SSE frame onto a stream event. Unknown lifecycle
// event names are dropped; known names with undecodable payloads become
// Malformed so one bad frame cannot kill the stream.
func decodeRunEvent(name, data string) (stream.Event, *RunError) {
	if data == "[DONE]" || name == eventDone {
		return stream.Done{}, nil
	}
	switch {
	case name == eventMessageDelta:
		var payload struct {
			Delta struct {
				Content []struct {
					Type string `json:"type"`
					Text *struct {
						Value string `json:"value"`
					} `json:"text"`
				} `json:"content"`
			} `json:"delta"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return stream.Malformed{Reason: "undecodable message delta"}, nil
		}
		var text strings.Builder
		for _, block := range payload.Delta.Content {
			if block.Type == "text" && block.Text != nil {
				text.WriteString(block.Text.Value)
			}
		}
		if text.Len() == 0 {
			return nil, nil
		}
		return stream.TextDelta{Text: text.String()}, nil

	case name == eventRunFailed:
		var payload struct {
			LastError struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"last_error"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return nil, &RunError{Message: "run failed with undecodable error detail"}
		}
		return nil, &RunError{Code: payload.LastError.Code, Message: payload.LastError.Message}

	case strings.HasPrefix(name, runStepPrefix):
		var payload struct {
			Type        string `json:"type"`
			StepDetails struct {
				ToolCalls []struct {
					Label  string `json:"label"`
					Status string `json:"status"`
				} `json:"tool_calls"`
			} `json:"step_details"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return stream.Malformed{Reason: "undecodable run step"}, nil
		}
		step := stream.StepStarted{StepKind: payload.Type}
		for _, call := range payload.StepDetails.ToolCalls {
			step.Calls = append(step.Calls, stream.NewToolCallStatus(call.Label, call.Status))
		}
		return step, nil
	}
	return nil, nil
}
