package llm

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewTurnID_IsULID(t *testing.T) {
	id, err := NewTurnID()
	if err != nil {
		t.Fatalf("NewTurnID: %v", err)
	}
	if _, err := ulid.ParseStrict(id); err != nil {
		t.Fatalf("not a ULID: %q: %v", id, err)
	}
}

func TestNewToolCallID_Format(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewToolCallID()
		if !strings.HasPrefix(id, "call_") || len(id) <= len("call_") {
			t.Fatalf("id %q: want call_<nanoid>", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
