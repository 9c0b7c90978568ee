package decode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// toolPayloadSchema checks the envelope only. Argument contents are the tool's concern.
const toolPayloadSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "arguments"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "arguments": {"type": ["object", "string", "array", "null"]}
  }
}`

var payloadSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource("tool_payload.json", strings.NewReader(toolPayloadSchema)); err != nil {
		return nil, err
	}
	return c.Compile("tool_payload.json")
})

var (
	errEmptyPayload = errors.New("empty tool payload")
	errUnclosedTag  = errors.New("tool tag never closed")
)

// ParseToolPayload decodes {"name": ..., "arguments": ...} captured from text. String
// arguments are returned verbatim; any other JSON value is compacted with key order kept.
func ParseToolPayload(payload string) (name, arguments string, err error) {
	body := stripFence(strings.TrimSpace(payload))
	if body == "" {
		return "", "", errEmptyPayload
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return "", "", fmt.Errorf("tool payload is not JSON: %w", err)
	}
	schema, err := payloadSchema()
	if err != nil {
		return "", "", err
	}
	if err := schema.Validate(v); err != nil {
		return "", "", fmt.Errorf("tool payload: %w", err)
	}
	var env struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return "", "", err
	}
	return env.Name, rawArguments(env.Arguments), nil
}

// ParseActionPayload decodes the text after an "Action:" marker. It accepts the JSON
// envelope, or the ReAct form of a tool name line followed by "Action Input:".
func ParseActionPayload(payload string) (name, arguments string, err error) {
	// Markers without the colon ("Action") leave it at the front of the payload.
	payload = strings.TrimPrefix(strings.TrimLeft(payload, " \t"), ":")
	name, arguments, err = ParseToolPayload(payload)
	if err == nil || errors.Is(err, errEmptyPayload) {
		return name, arguments, err
	}
	body := stripFence(strings.TrimSpace(payload))
	head, rest, ok := strings.Cut(body, "Action Input:")
	if !ok {
		return "", "", err
	}
	name = strings.TrimSpace(head)
	if name == "" || strings.ContainsAny(name, "\n{") {
		return "", "", err
	}
	return name, strings.TrimSpace(stripFence(strings.TrimSpace(rest))), nil
}

func rawArguments(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var b bytes.Buffer
	if err := json.Compact(&b, raw); err != nil {
		return string(raw)
	}
	return b.String()
}

// stripFence removes a closing ``` and, if present, an opening ```lang line.
func stripFence(s string) string {
	s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	return strings.TrimSpace(s)
}
