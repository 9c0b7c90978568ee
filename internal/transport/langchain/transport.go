// Package langchain adapts langchaingo models onto the delta stream the decoder reads.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/strongdm/turnstream/internal/llm"
)

const provider = "langchain"

var errConsumerGone = errors.New("delta consumer stopped")

// Transport streams one langchaingo model. Text chunks arrive through the streaming
// callback; tool calls and the stop reason only exist on the final response and are
// sent as a trailing delta.
type Transport struct {
	Model   llms.Model
	Options []llms.CallOption
	Log     zerolog.Logger
}

func New(model llms.Model, opts ...llms.CallOption) *Transport {
	return &Transport{Model: model, Options: opts, Log: zerolog.Nop()}
}

func NewOpenAI(model, baseURL, token string) (*Transport, error) {
	opts := []openai.Option{openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if token != "" {
		opts = append(opts, openai.WithToken(token))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return New(client, llms.WithModel(model)), nil
}

func NewOllama(model, serverURL string) (*Transport, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}
	return New(client), nil
}

// Stream returns the model's reply to msgs. The request starts when the caller begins
// ranging and is canceled if the caller stops early.
func (t *Transport) Stream(ctx context.Context, msgs []llm.Message) iter.Seq2[llm.Delta, error] {
	return func(yield func(llm.Delta, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		s := llm.NewChanStream(cancel)
		go t.produce(ctx, s, toMessageContent(msgs))
		for d, err := range s.Deltas() {
			if !yield(d, err) {
				return
			}
		}
	}
}

func (t *Transport) produce(ctx context.Context, s *llm.ChanStream, msgs []llms.MessageContent) {
	defer s.CloseSend()
	streamed := false
	opts := append(slices.Clone(t.Options), llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		d := llm.ContentDelta(string(chunk))
		if !streamed {
			d.Role = llm.RoleAssistant
			streamed = true
		}
		if !s.SendDelta(d) {
			return errConsumerGone
		}
		return nil
	}))
	resp, err := t.Model.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		if errors.Is(err, errConsumerGone) {
			return
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		t.Log.Debug().Err(err).Msg("generate content failed")
		s.SendError(llm.WrapContextError(provider, fmt.Errorf("%s: %w", provider, err)))
		return
	}
	if resp == nil || len(resp.Choices) == 0 {
		s.SendError(llm.NewStreamError(provider, "empty response"))
		return
	}
	for _, d := range trailing(resp.Choices[0], streamed) {
		if !s.SendDelta(d) {
			return
		}
	}
}

// trailing converts the final choice into the deltas the stream did not carry.
func trailing(choice *llms.ContentChoice, streamed bool) []llm.Delta {
	d := llm.Delta{FinishReason: choice.StopReason}
	if !streamed {
		d.Role = llm.RoleAssistant
		if choice.Content != "" {
			d.Content = llm.String(choice.Content)
		}
	}
	out := []llm.Delta{d}
	for i, tc := range choice.ToolCalls {
		frag := &llm.ToolCallFragment{Index: i, ID: tc.ID}
		if tc.FunctionCall != nil {
			frag.Name = llm.String(tc.FunctionCall.Name)
			frag.Arguments = llm.String(tc.FunctionCall.Arguments)
		}
		if i == 0 {
			out[0].ToolCall = frag
			continue
		}
		out = append(out, llm.Delta{ToolCall: frag})
	}
	if len(choice.ToolCalls) == 0 && choice.FuncCall != nil {
		out[0].ToolCall = &llm.ToolCallFragment{
			Name:      llm.String(choice.FuncCall.Name),
			Arguments: llm.String(choice.FuncCall.Arguments),
		}
	}
	if out[0].ToolCall != nil && out[0].FinishReason == "" {
		out[0].FinishReason = "tool_calls"
	}
	return out
}

func toMessageContent(msgs []llm.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case llm.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case llm.RoleAssistant:
			var parts []llms.ContentPart
			if m.Content != "" {
				parts = append(parts, llms.TextPart(m.Content))
			}
			if tc := m.ToolCall; tc != nil {
				parts = append(parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, llms.TextPart(" "))
			}
			out = append(out, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})
		case llm.RoleTool, llm.RoleFunction:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{ToolCallID: m.ToolCallID, Name: m.Name, Content: m.Content},
				},
			})
		}
	}
	return out
}
