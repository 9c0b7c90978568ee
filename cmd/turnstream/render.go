package main

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/strongdm/turnstream/internal/llm"
)

// renderer prints one turn's events. Text goes to out; reasoning goes to errOut so
// piping stdout captures only the visible answer.
type renderer struct {
	out    io.Writer
	errOut io.Writer
	json   bool

	inReasoning bool
}

func (r *renderer) run(events iter.Seq2[llm.StreamEvent, error]) error {
	enc := json.NewEncoder(r.out)
	for ev, err := range events {
		if err != nil {
			return err
		}
		if r.json {
			if err := enc.Encode(ev); err != nil {
				return err
			}
			continue
		}
		switch ev.Type {
		case llm.StreamEventToolCallEnd:
			r.endReasoning()
			printToolCall(r.out, ev.ToolCall)
		case llm.StreamEventReasoningDelta:
			if !r.inReasoning {
				fmt.Fprint(r.errOut, "[reasoning] ")
				r.inReasoning = true
			}
			fmt.Fprint(r.errOut, ev.Delta)
		case llm.StreamEventTextDelta:
			r.endReasoning()
			fmt.Fprint(r.out, ev.Delta)
		}
	}
	r.endReasoning()
	return nil
}

func (r *renderer) endReasoning() {
	if r.inReasoning {
		fmt.Fprintln(r.errOut)
		r.inReasoning = false
	}
}

func printToolCall(w io.Writer, tc *llm.ToolCall) {
	if tc == nil {
		return
	}
	fmt.Fprintf(w, "\n[tool call %s] %s(%s)\n", tc.ID, tc.Name, tc.Arguments)
}
