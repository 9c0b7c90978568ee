package llm

import "encoding/json"

// Delta is one incremental unit of a streamed response, already decoded from the wire.
// Nil pointers mean the field was absent, which is distinct from an empty string.
type Delta struct {
	Role         Role              `json:"role,omitempty"`
	Content      *string           `json:"content,omitempty"`
	Reasoning    *string           `json:"reasoning_content,omitempty"`
	ToolCall     *ToolCallFragment `json:"tool_call,omitempty"`
	FinishReason string            `json:"finish_reason,omitempty"`

	// Raw is the backend payload the delta was decoded from.
	Raw json.RawMessage `json:"raw,omitempty"`
}

type ToolCallFragment struct {
	Index     int     `json:"index"`
	ID        string  `json:"id,omitempty"`
	Name      *string `json:"name,omitempty"`
	Arguments *string `json:"arguments,omitempty"`
}

// String returns a pointer to s, for building deltas.
func String(s string) *string { return &s }

// ContentDelta is shorthand for a delta carrying only a content fragment.
func ContentDelta(s string) Delta { return Delta{Content: &s} }

// ReasoningDelta is shorthand for a delta carrying only a reasoning fragment.
func ReasoningDelta(s string) Delta { return Delta{Reasoning: &s} }

type StreamEventType string

const (
	StreamEventTextDelta      StreamEventType = "TEXT_DELTA"
	StreamEventReasoningDelta StreamEventType = "REASONING_DELTA"
	StreamEventToolCallEnd    StreamEventType = "TOOL_CALL_END"
	StreamEventDelta          StreamEventType = "DELTA"
	StreamEventError          StreamEventType = "ERROR"
)

type StreamEvent struct {
	Type StreamEventType `json:"type"`

	// Text and reasoning events
	Delta string `json:"delta,omitempty"`

	// Tool call events
	ToolCall *ToolCall `json:"tool_call,omitempty"`

	// Transport events
	Raw *Delta `json:"raw,omitempty"`

	// Error event
	Err error `json:"-"`
}

func TextEvent(s string) StreamEvent      { return StreamEvent{Type: StreamEventTextDelta, Delta: s} }
func ReasoningEvent(s string) StreamEvent { return StreamEvent{Type: StreamEventReasoningDelta, Delta: s} }
