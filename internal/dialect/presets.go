package dialect

import (
	"fmt"
	"sort"
)

var builtins = map[string]Config{
	"openai": {
		Name:        "openai",
		Description: "OpenAI chat completions with native function/tool call deltas",
		Provider:    "openai",
		ToolCalls:   ToolCallsNative,
	},
	"deepseek-r1": {
		Name:        "deepseek-r1",
		Description: "DeepSeek R1: reasoning_content channel plus native tool calls",
		Provider:    "openai",
		ToolCalls:   ToolCallsNative,
		Reasoning:   ReasoningChannel,
	},
	"qwen-vllm": {
		Name:         "qwen-vllm",
		Description:  "Qwen served by vLLM: a <tool_call> JSON block at the start of the reply",
		Provider:     "openai",
		ToolCalls:    ToolCallsTag,
		ToolMarkers:  []string{"<tool_call>"},
		ToolCloseTag: "</tool_call>",
		MarkerAnchor: AnchorStart,
	},
	"qwen-dashscope": {
		Name:              "qwen-dashscope",
		Description:       "Qwen on DashScope: native function_call that keeps streaming arguments after the finish reason",
		Provider:          "openai",
		ToolCalls:         ToolCallsNative,
		ContinueAfterSeal: true,
	},
	"qwq": {
		Name:               "qwq",
		Description:        "QwQ: inline <think> reasoning followed by <tool_call> blocks",
		Provider:           "openai",
		ToolCalls:          ToolCallsTag,
		ToolMarkers:        []string{"<tool_call>"},
		ToolCloseTag:       "</tool_call>",
		Reasoning:          ReasoningInline,
		ReasoningDelimiter: "</think>",
		ReasoningOpenTag:   "<think>",
	},
	"gemma": {
		Name:         "gemma",
		Description:  "Gemma: a fenced Action: block opening the reply",
		Provider:     "openai",
		ToolCalls:    ToolCallsPrefix,
		ToolMarkers:  []string{"```\nAction:"},
		MarkerAnchor: AnchorStart,
		OnMalformed:  MalformedContent,
	},
	"llama": {
		Name:        "llama",
		Description: "LLaMA: Action: on its own line, optionally inside a code fence",
		Provider:    "openai",
		ToolCalls:   ToolCallsPrefix,
		ToolMarkers: []string{
			"Action:",
			"```\nAction:",
			"```tool_call\nAction:",
			"```tool_code\nAction:",
			"```python\nAction:",
		},
		MarkerAnchor: AnchorLine,
		OnMalformed:  MalformedContent,
	},
	"phi3": {
		Name:         "phi3",
		Description:  "Phi-3: reply opens with Action",
		Provider:     "openai",
		ToolCalls:    ToolCallsPrefix,
		ToolMarkers:  []string{"Action", " Action"},
		MarkerAnchor: AnchorStart,
		OnMalformed:  MalformedContent,
	},
	"glm4": {
		Name:         "glm4",
		Description:  "GLM-4: reply opens with Action",
		Provider:     "openai",
		ToolCalls:    ToolCallsPrefix,
		ToolMarkers:  []string{"Action", " Action"},
		MarkerAnchor: AnchorStart,
		OnMalformed:  MalformedContent,
	},
	"plain": {
		Name:        "plain",
		Description: "content only",
		ToolCalls:   ToolCallsNone,
	},
}

// Builtin returns a defaulted copy of a built-in dialect.
func Builtin(name string) (Config, bool) {
	c, ok := builtins[name]
	if !ok {
		return Config{}, false
	}
	c = c.Clone()
	c.ApplyDefaults()
	return c, true
}

// MustBuiltin is Builtin for names known at compile time.
func MustBuiltin(name string) Config {
	c, ok := Builtin(name)
	if !ok {
		panic(fmt.Sprintf("unknown built-in dialect %q", name))
	}
	return c
}

// BuiltinNames lists built-in dialects in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
