package decode

import (
	"strings"

	"github.com/strongdm/turnstream/internal/llm"
)

// ToolCallAccumulator reassembles the single in-flight tool call of a turn from its
// name and argument fragments.
type ToolCallAccumulator struct {
	id        string
	index     int
	name      strings.Builder
	arguments strings.Builder

	open        bool
	parsed      bool
	sealed      bool
	sealReason  string
	keepStreams bool
	dropped     int
}

// NewToolCallAccumulator builds an accumulator. With continueAfterSeal set, argument
// fragments are still accepted after Seal.
func NewToolCallAccumulator(continueAfterSeal bool) *ToolCallAccumulator {
	return &ToolCallAccumulator{keepStreams: continueAfterSeal}
}

// Add appends a fragment and reports whether it was accepted. Fragments for a second
// call index, or for a call already parsed from text, are dropped.
func (a *ToolCallAccumulator) Add(f llm.ToolCallFragment) bool {
	if a.parsed || (a.sealed && !a.keepStreams) {
		a.dropped++
		return false
	}
	if !a.open {
		a.open = true
		a.index = f.Index
	} else if f.Index != a.index {
		a.dropped++
		return false
	}
	if a.id == "" && f.ID != "" {
		a.id = f.ID
	}
	if f.Name != nil {
		a.name.WriteString(*f.Name)
	}
	if f.Arguments != nil {
		a.arguments.WriteString(*f.Arguments)
	}
	return true
}

// Set records a complete call parsed from text. It is ignored once a call is open.
// Structured fragments never extend a call recorded this way.
func (a *ToolCallAccumulator) Set(name, arguments string) bool {
	if a.open {
		return false
	}
	a.open = true
	a.parsed = true
	a.name.WriteString(name)
	a.arguments.WriteString(arguments)
	return true
}

// Seal marks the record terminal. Only the first reason is kept.
func (a *ToolCallAccumulator) Seal(reason string) {
	if a.sealed {
		return
	}
	a.sealed = true
	a.sealReason = reason
}

func (a *ToolCallAccumulator) Open() bool   { return a.open }
func (a *ToolCallAccumulator) Sealed() bool { return a.sealed }

// SealReason is the reason passed to the first Seal.
func (a *ToolCallAccumulator) SealReason() string { return a.sealReason }

// Dropped counts fragments rejected after sealing, after Set or for another call index.
func (a *ToolCallAccumulator) Dropped() int { return a.dropped }

// Call returns the reassembled call, or nil if no fragment was ever accepted. A call
// without a backend ID is given a generated one.
func (a *ToolCallAccumulator) Call() *llm.ToolCall {
	if !a.open {
		return nil
	}
	if a.id == "" {
		a.id = llm.NewToolCallID()
	}
	return &llm.ToolCall{ID: a.id, Name: a.name.String(), Arguments: a.arguments.String()}
}
