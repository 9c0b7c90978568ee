package llm

import (
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
	RoleTool      Role = "tool"
)

// ToolCall is a fully reassembled tool invocation. Arguments is the raw argument text as
// the backend produced it; it is not guaranteed to be valid JSON.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Message struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Name       string    `json:"name,omitempty"`
	Reasoning  string    `json:"reasoning_content,omitempty"`
	ToolCall   *ToolCall `json:"function_call,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
}

func System(text string) Message    { return Message{Role: RoleSystem, Content: text} }
func User(text string) Message      { return Message{Role: RoleUser, Content: text} }
func Assistant(text string) Message { return Message{Role: RoleAssistant, Content: text} }

func UserNamed(name, text string) Message {
	return Message{Role: RoleUser, Name: name, Content: text}
}

// FunctionResult is the legacy function-calling reply shape.
func FunctionResult(name, content string) Message {
	return Message{Role: RoleFunction, Name: name, Content: content}
}

func ToolResult(toolCallID, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Name: name, Content: content}
}

// ParseRole maps a backend role string onto a known Role. Unknown or empty strings yield
// "" so callers keep whatever role they last saw.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSystem:
		return RoleSystem
	case RoleUser:
		return RoleUser
	case RoleAssistant, "model", "ai":
		return RoleAssistant
	case RoleFunction:
		return RoleFunction
	case RoleTool:
		return RoleTool
	}
	return ""
}

type FinishReason struct {
	Reason string `json:"reason"`
	Raw    string `json:"raw,omitempty"`
}

const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonFunctionCall  = "function_call"
	FinishReasonContentFilter = "content_filter"
	FinishReasonError         = "error"
	FinishReasonOther         = "other"
)

// NormalizeFinishReason maps provider-specific finish reason strings to
// canonical values while preserving the provider raw value. Every tool
// invocation flavour collapses to FinishReasonFunctionCall.
func NormalizeFinishReason(provider, raw string) FinishReason {
	if strings.TrimSpace(raw) == "" {
		return FinishReason{Reason: FinishReasonStop}
	}
	return FinishReason{Reason: normalizeFinish(provider, raw), Raw: raw}
}

func normalizeFinish(provider, raw string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "anthropic":
		switch raw {
		case "end_turn", "stop_sequence":
			return FinishReasonStop
		case "max_tokens":
			return FinishReasonLength
		case "tool_use":
			return FinishReasonFunctionCall
		}
	case "google":
		switch raw {
		case "STOP":
			return FinishReasonStop
		case "MAX_TOKENS":
			return FinishReasonLength
		case "SAFETY", "RECITATION":
			return FinishReasonContentFilter
		}
	case "ollama":
		switch raw {
		case "stop", "done":
			return FinishReasonStop
		case "length":
			return FinishReasonLength
		}
	}
	// OpenAI-compatible providers (vLLM, DashScope, DeepSeek) use these.
	switch raw {
	case FinishReasonStop, FinishReasonLength, FinishReasonContentFilter, FinishReasonError:
		return raw
	case FinishReasonFunctionCall, "tool_calls", "tool_use":
		return FinishReasonFunctionCall
	}
	return FinishReasonOther
}
