package decode

import (
	"testing"

	"github.com/strongdm/turnstream/internal/llm"
)

func TestToolCallAccumulator_SealIsIdempotent(t *testing.T) {
	a := NewToolCallAccumulator(false)
	a.Add(llm.ToolCallFragment{Name: llm.String("f")})
	a.Seal(llm.FinishReasonFunctionCall)
	a.Seal(llm.FinishReasonStop)
	if got := a.SealReason(); got != llm.FinishReasonFunctionCall {
		t.Fatalf("got %q", got)
	}
	if a.Add(llm.ToolCallFragment{Arguments: llm.String("x")}) {
		t.Fatal("accepted fragment after seal")
	}
	if a.Dropped() != 1 {
		t.Fatalf("dropped=%d", a.Dropped())
	}
}

func TestToolCallAccumulator_NilFragmentsAreSkipped(t *testing.T) {
	a := NewToolCallAccumulator(false)
	a.Add(llm.ToolCallFragment{Name: llm.String("get_"), Arguments: llm.String("")})
	a.Add(llm.ToolCallFragment{Name: llm.String("weather")})
	a.Add(llm.ToolCallFragment{Arguments: llm.String(`{"q":1}`)})
	c := a.Call()
	if c.Name != "get_weather" || c.Arguments != `{"q":1}` {
		t.Fatalf("got %+v", c)
	}
	if c.ID == "" || a.Call().ID != c.ID {
		t.Fatalf("generated id not stable: %q vs %q", c.ID, a.Call().ID)
	}
}

func TestToolCallAccumulator_SetAfterFragmentsIsIgnored(t *testing.T) {
	a := NewToolCallAccumulator(false)
	if a.Call() != nil {
		t.Fatal("empty accumulator returned a call")
	}
	a.Add(llm.ToolCallFragment{Name: llm.String("native")})
	if a.Set("text", "{}") {
		t.Fatal("Set replaced an open call")
	}
	if a.Call().Name != "native" {
		t.Fatalf("got %+v", a.Call())
	}
}

func TestToolCallAccumulator_FragmentsAfterSetAreDropped(t *testing.T) {
	a := NewToolCallAccumulator(true)
	a.Set("f", `{"a":1}`)
	if a.Add(llm.ToolCallFragment{Name: llm.String("g"), Arguments: llm.String(`{"b":2}`)}) {
		t.Fatal("fragment extended a parsed call")
	}
	if c := a.Call(); c.Name != "f" || c.Arguments != `{"a":1}` {
		t.Fatalf("got %+v", c)
	}
	if a.Dropped() != 1 {
		t.Fatalf("dropped=%d", a.Dropped())
	}
}
