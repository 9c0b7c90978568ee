// Package conversation holds the message history a chat session sends to a backend.
package conversation

import (
	"slices"
	"sync"

	"github.com/strongdm/turnstream/internal/llm"
)

// Conversation is an ordered, concurrency-safe message history. Each Append is atomic, so
// overlapping turns never interleave within one message.
type Conversation struct {
	mu   sync.RWMutex
	msgs []llm.Message
}

func New(msgs ...llm.Message) *Conversation {
	return &Conversation{msgs: slices.Clone(msgs)}
}

func (c *Conversation) Append(msg llm.Message) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
}

func (c *Conversation) AppendUserInput(content string) { c.Append(llm.User(content)) }

// AppendUserInputWithName records user input attributed to a named participant.
func (c *Conversation) AppendUserInputWithName(name, content string) {
	c.Append(llm.UserNamed(name, content))
}

func (c *Conversation) AppendSystemMessage(content string) { c.Append(llm.System(content)) }

// AppendExampleAssistantOutput seeds a few-shot assistant reply.
func (c *Conversation) AppendExampleAssistantOutput(content string) {
	c.Append(llm.Assistant(content))
}

// AppendFunctionMessage records the result of a legacy function call.
func (c *Conversation) AppendFunctionMessage(name, content string) {
	c.Append(llm.FunctionResult(name, content))
}

// AppendToolMessage records a tool result. The tool call ID is taken from the most recent
// assistant message that called name, if any.
func (c *Conversation) AppendToolMessage(name, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var id string
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if tc := c.msgs[i].ToolCall; tc != nil && tc.Name == name {
			id = tc.ID
			break
		}
	}
	c.msgs = append(c.msgs, llm.ToolResult(id, name, content))
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.msgs)
}

// Truncate drops every message after the first n. It is used to undo input whose turn
// failed.
func (c *Conversation) Truncate(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 || n >= len(c.msgs) {
		return
	}
	clear(c.msgs[n:])
	c.msgs = c.msgs[:n]
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.msgs)
}
