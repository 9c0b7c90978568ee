package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/strongdm/turnstream/internal/llm"
)

func sseServer(t *testing.T, status int, chunks ...string) (*httptest.Server, *wireRequest) {
	t.Helper()
	var got wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("authorization: got %q", auth)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, chunks[0])
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func drain(t *testing.T, seq func(func(llm.Delta, error) bool)) ([]llm.Delta, error) {
	t.Helper()
	var out []llm.Delta
	for d, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

func TestClient_StreamDecodesChunks(t *testing.T) {
	srv, got := sseServer(t, http.StatusOK,
		`{"choices":[{"index":0,"delta":{"role":"assistant","content":""}}]}`,
		`{"choices":[{"index":0,"delta":{"reasoning_content":"think"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"f","arguments":"{\"a\""}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":":1}"}}]},"finish_reason":"tool_calls"}]}`,
		`[DONE]`,
		`{"choices":[{"index":0,"delta":{"content":"never"}}]}`,
	)
	c := NewClient(srv.URL+"/", "sk-test")
	seq, err := c.Stream(context.Background(), Request{
		Model:    "m",
		Messages: []llm.Message{llm.User("hi"), {Role: llm.RoleAssistant, ToolCall: &llm.ToolCall{ID: "x", Name: "g", Arguments: "{}"}}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	deltas, err := drain(t, seq)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(deltas) != 5 {
		t.Fatalf("deltas: got %d want 5", len(deltas))
	}
	if deltas[0].Role != llm.RoleAssistant || deltas[0].Content == nil || *deltas[0].Content != "" {
		t.Fatalf("role delta: %+v", deltas[0])
	}
	if deltas[1].Reasoning == nil || *deltas[1].Reasoning != "think" {
		t.Fatalf("reasoning delta: %+v", deltas[1])
	}
	tc := deltas[3].ToolCall
	if tc == nil || tc.ID != "call_1" || *tc.Name != "f" || *tc.Arguments != `{"a"` {
		t.Fatalf("tool delta: %+v", tc)
	}
	if deltas[4].FinishReason != "tool_calls" || deltas[4].ToolCall.Name != nil {
		t.Fatalf("finish delta: %+v", deltas[4])
	}
	if len(deltas[2].Raw) == 0 {
		t.Fatalf("raw payload not kept")
	}
	if !got.Stream || got.Model != "m" || len(got.Messages) != 2 || got.Messages[1].FunctionCall.Name != "g" {
		t.Fatalf("request: %+v", got)
	}
}

func TestClient_LegacyFunctionCallChunks(t *testing.T) {
	srv, _ := sseServer(t, http.StatusOK,
		`{"choices":[{"index":0,"delta":{"role":"assistant","function_call":{"name":"lookup","arguments":""}}}]}`,
		`{"choices":[{"index":0,"delta":{"function_call":{"arguments":"{}"}},"finish_reason":"function_call"}]}`,
	)
	seq, err := NewClient(srv.URL, "sk-test").Stream(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatal(err)
	}
	deltas, err := drain(t, seq)
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 2 || *deltas[0].ToolCall.Name != "lookup" || *deltas[1].ToolCall.Arguments != "{}" {
		t.Fatalf("got %+v", deltas)
	}
}

func TestClient_HTTPErrorsAreTyped(t *testing.T) {
	srv, _ := sseServer(t, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`)
	_, err := NewClient(srv.URL, "sk-test").Stream(context.Background(), Request{Model: "m"})
	var rl *llm.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("got %T %v", err, err)
	}
	if !strings.Contains(err.Error(), "slow down") || rl.StatusCode() != 429 {
		t.Fatalf("error: %v", err)
	}
}

func TestClient_ErrorChunkEndsStream(t *testing.T) {
	srv, _ := sseServer(t, http.StatusOK,
		`{"choices":[{"index":0,"delta":{"content":"a"}}]}`,
		`{"error":{"message":"overloaded"}}`,
	)
	seq, err := NewClient(srv.URL, "sk-test").Stream(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatal(err)
	}
	deltas, err := drain(t, seq)
	var se *llm.StreamError
	if !errors.As(err, &se) || len(deltas) != 1 {
		t.Fatalf("got %d deltas, err %T %v", len(deltas), err, err)
	}
}

func TestDecodeChunk_ParallelToolCallsSplit(t *testing.T) {
	deltas, err := decodeChunk("openai", []byte(`{"choices":[{"delta":{"tool_calls":[
		{"index":0,"function":{"name":"a"}},
		{"index":1,"function":{"name":"b"}}]}}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 2 || deltas[1].ToolCall.Index != 1 {
		t.Fatalf("got %+v", deltas)
	}
}
