package stream

const (
	// PlaceholderLabel substitutes a missing tool-call label.
	PlaceholderLabel = "<tool>"
	// PlaceholderStatus substitutes a missing tool-call status.
	PlaceholderStatus = "<unknown>"
)

// Kind discriminates the event variants carried by a run stream.
type Kind string

const (
	KindTextDelta   Kind = "text_delta"
	KindStepStarted Kind = "step_started"
	KindDone        Kind = "done"
	KindMalformed   Kind = "malformed"
)

// Event is a single occurrence observed on a run stream. The set of
// implementations is closed; payloads are decoded once at the boundary so
// consumers never probe for optional fields.
type Event interface {
	Kind() Kind
}

// TextDelta carries one streamed fragment of agent output text.
type TextDelta struct {
	Text string
}

func (TextDelta) Kind() Kind { return KindTextDelta }

// ToolCallStatus is the reported state of one tool call at the moment a step
// event was emitted. It is a snapshot; later events for the same logical call
// arrive as fresh StepStarted events and are never merged.
type ToolCallStatus struct {
	Label  string `json:"label"`
	Status string `json:"status"`
}

// NewToolCallStatus fills missing fields with placeholders so downstream code
// can rely on both being non-empty.
func NewToolCallStatus(label, status string) ToolCallStatus {
	if label == "" {
		label = PlaceholderLabel
	}
	if status == "" {
		status = PlaceholderStatus
	}
	return ToolCallStatus{Label: label, Status: status}
}

// StepStarted reports that the remote agent began (or re-reported) a run
// step, typically a batch of tool calls.
type StepStarted struct {
	StepKind string
	Calls    []ToolCallStatus
}

func (StepStarted) Kind() Kind { return KindStepStarted }

// Done marks the end of the stream. It is always the last event.
type Done struct{}

func (Done) Kind() Kind { return KindDone }

// Malformed stands in for an event whose payload could not be decoded.
// It is rendered as a placeholder and never aborts consumption.
type Malformed struct {
	Reason string
}

func (Malformed) Kind() Kind { return KindMalformed }
