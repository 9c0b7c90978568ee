// Package openaicompat streams chat completions from OpenAI-compatible HTTP servers
// (OpenAI, vLLM, DashScope compatible mode, Ollama's /v1, llama.cpp server).
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/strongdm/turnstream/internal/llm"
)

const defaultProvider = "openai"

// Client talks to one /chat/completions endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	Provider   string
	HTTPClient *http.Client
	Log        zerolog.Logger
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Provider:   defaultProvider,
		HTTPClient: http.DefaultClient,
		Log:        zerolog.Nop(),
	}
}

type Request struct {
	Model       string
	Messages    []llm.Message
	Temperature *float64
	MaxTokens   int
	// Tools is passed through as the request's "tools" field.
	Tools json.RawMessage
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireMessage struct {
	Role         llm.Role          `json:"role"`
	Content      string            `json:"content"`
	Name         string            `json:"name,omitempty"`
	FunctionCall *wireFunctionCall `json:"function_call,omitempty"`
	ToolCallID   string            `json:"tool_call_id,omitempty"`
}

type wireRequest struct {
	Model       string          `json:"model"`
	Messages    []wireMessage   `json:"messages"`
	Stream      bool            `json:"stream"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Tools       json.RawMessage `json:"tools,omitempty"`
}

func toWire(req Request) wireRequest {
	msgs := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		w := wireMessage{Role: m.Role, Content: m.Content, Name: m.Name, ToolCallID: m.ToolCallID}
		if m.ToolCall != nil {
			w.FunctionCall = &wireFunctionCall{Name: m.ToolCall.Name, Arguments: m.ToolCall.Arguments}
		}
		msgs = append(msgs, w)
	}
	return wireRequest{
		Model:       req.Model,
		Messages:    msgs,
		Stream:      true,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Tools:       req.Tools,
	}
}

func (c *Client) provider() string {
	if c.Provider == "" {
		return defaultProvider
	}
	return c.Provider
}

// Stream sends req and returns the response as a delta sequence. HTTP failures are
// returned before any delta is produced. The response body is closed when the sequence
// ends or the caller stops ranging.
func (c *Client) Stream(ctx context.Context, req Request) (iter.Seq2[llm.Delta, error], error) {
	body, err := json.Marshal(toWire(req))
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	c.Log.Debug().Str("model", req.Model).Int("messages", len(req.Messages)).Msg("chat completion request")
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, llm.WrapContextError(c.provider(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, llm.ErrorFromHTTPStatus(c.provider(), resp.StatusCode, errorMessage(raw), raw)
	}
	return c.deltas(ctx, resp.Body), nil
}

func (c *Client) deltas(ctx context.Context, body io.ReadCloser) iter.Seq2[llm.Delta, error] {
	return func(yield func(llm.Delta, error) bool) {
		defer body.Close()
		stopped := false
		err := llm.ParseSSE(ctx, body, func(ev llm.SSEEvent) error {
			if ev.IsDone() {
				return llm.ErrStopSSE
			}
			if len(bytes.TrimSpace(ev.Data)) == 0 {
				return nil
			}
			deltas, err := decodeChunk(c.provider(), ev.Data)
			if err != nil {
				return err
			}
			for _, d := range deltas {
				if !yield(d, nil) {
					stopped = true
					return llm.ErrStopSSE
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(llm.Delta{}, err)
		}
	}
}

func errorMessage(raw []byte) string {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &env) == nil {
		if env.Error.Message != "" {
			return env.Error.Message
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

