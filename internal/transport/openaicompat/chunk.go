package openaicompat

import (
	"encoding/json"

	"github.com/strongdm/turnstream/internal/llm"
)

type chunk struct {
	Choices []chunkChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkFunction struct {
	Name      *string `json:"name,omitempty"`
	Arguments *string `json:"arguments,omitempty"`
}

type chunkToolCall struct {
	Index    int           `json:"index"`
	ID       string        `json:"id,omitempty"`
	Function chunkFunction `json:"function"`
}

type chunkDelta struct {
	Role             string          `json:"role,omitempty"`
	Content          *string         `json:"content,omitempty"`
	ReasoningContent *string         `json:"reasoning_content,omitempty"`
	Reasoning        *string         `json:"reasoning,omitempty"`
	FunctionCall     *chunkFunction  `json:"function_call,omitempty"`
	ToolCalls        []chunkToolCall `json:"tool_calls,omitempty"`
}

// decodeChunk turns one chat.completion.chunk into deltas. Only the first choice is
// read. Each tool_calls entry after the first becomes its own delta.
func decodeChunk(provider string, data []byte) ([]llm.Delta, error) {
	var c chunk
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, llm.NewStreamError(provider, "malformed chunk: "+err.Error())
	}
	if c.Error != nil {
		return nil, llm.NewStreamError(provider, c.Error.Message)
	}
	raw := json.RawMessage(append([]byte(nil), data...))
	if len(c.Choices) == 0 {
		return []llm.Delta{{Raw: raw}}, nil
	}
	ch := c.Choices[0]
	d := llm.Delta{
		Role:      llm.ParseRole(ch.Delta.Role),
		Content:   ch.Delta.Content,
		Reasoning: ch.Delta.ReasoningContent,
		Raw:       raw,
	}
	if d.Reasoning == nil {
		d.Reasoning = ch.Delta.Reasoning
	}
	if ch.FinishReason != nil {
		d.FinishReason = *ch.FinishReason
	}
	if fc := ch.Delta.FunctionCall; fc != nil {
		d.ToolCall = &llm.ToolCallFragment{Name: fc.Name, Arguments: fc.Arguments}
	}
	out := []llm.Delta{d}
	for i, tc := range ch.Delta.ToolCalls {
		frag := &llm.ToolCallFragment{Index: tc.Index, ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
		if i == 0 && out[0].ToolCall == nil {
			out[0].ToolCall = frag
			continue
		}
		out = append(out, llm.Delta{ToolCall: frag, Raw: raw})
	}
	return out, nil
}
