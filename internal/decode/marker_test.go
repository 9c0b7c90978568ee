package decode

import (
	"testing"

	"github.com/strongdm/turnstream/internal/dialect"
)

var llamaMarkers = []string{"Action:", "```\nAction:", "```tool_call\nAction:", "```tool_code\nAction:", "```python\nAction:"}

func TestMarkerMatcher_PrefersLongestOverlappingMarker(t *testing.T) {
	m := NewMarkerMatcher([]string{"Action:", "```\nAction:"}, dialect.AnchorAnywhere)
	got := m.Match("```\nAction: x", Position{AtStart: true}, false)
	if got.Kind != Matched {
		t.Fatalf("kind: got %s want matched", got.Kind)
	}
	if got.Marker != "```\nAction:" || got.Before != "" || got.After != " x" {
		t.Fatalf("split: got marker=%q before=%q after=%q", got.Marker, got.Before, got.After)
	}
}

func TestMarkerMatcher_StrictPrefixIsNoMatchYet(t *testing.T) {
	m := NewMarkerMatcher([]string{"Action:"}, dialect.AnchorAnywhere)
	got := m.Match("Acti", Position{AtStart: true}, false)
	if got.Kind != NoMatchYet || got.Safe != 0 {
		t.Fatalf("got %s safe=%d want no_match_yet safe=0", got.Kind, got.Safe)
	}
	got = m.Match("Say Acti", Position{AtStart: true}, false)
	if got.Kind != NoMatchYet || got.Safe != 4 {
		t.Fatalf("got %s safe=%d want no_match_yet safe=4", got.Kind, got.Safe)
	}
	got = m.Match("Acti", Position{AtStart: true}, true)
	if got.Kind != RuledOut || got.Safe != 4 {
		t.Fatalf("final: got %s safe=%d want ruled_out safe=4", got.Kind, got.Safe)
	}
}

func TestMarkerMatcher_DefersWhileLongerMarkerCanComplete(t *testing.T) {
	m := NewMarkerMatcher([]string{"<tool", "<tool_call>"}, dialect.AnchorAnywhere)
	if got := m.Match("<tool", Position{}, false); got.Kind != NoMatchYet {
		t.Fatalf("got %s want no_match_yet", got.Kind)
	}
	if got := m.Match("<tool_call>", Position{}, false); got.Kind != Matched || got.Marker != "<tool_call>" {
		t.Fatalf("got %s %q want <tool_call>", got.Kind, got.Marker)
	}
	if got := m.Match("<tools", Position{}, false); got.Kind != Matched || got.Marker != "<tool" || got.After != "s" {
		t.Fatalf("got %s %q after=%q want <tool", got.Kind, got.Marker, got.After)
	}
	if got := m.Match("<tool", Position{}, true); got.Kind != Matched || got.Marker != "<tool" {
		t.Fatalf("final: got %s %q want <tool", got.Kind, got.Marker)
	}
}

func TestMarkerMatcher_Anchors(t *testing.T) {
	start := NewMarkerMatcher([]string{"Action"}, dialect.AnchorStart)
	if got := start.Match("Say Action", Position{AtStart: true}, false); got.Kind != RuledOut {
		t.Fatalf("start anchor mid-text: got %s", got.Kind)
	}
	if got := start.Match("Action", Position{}, false); got.Kind != RuledOut {
		t.Fatalf("start anchor after flushed text: got %s", got.Kind)
	}
	if got := start.Match("Action", Position{AtStart: true}, false); got.Kind != Matched {
		t.Fatalf("start anchor at start: got %s", got.Kind)
	}

	line := NewMarkerMatcher([]string{"Action:"}, dialect.AnchorLine)
	if got := line.Match("x Action: y", Position{AtStart: true}, false); got.Kind != RuledOut {
		t.Fatalf("line anchor mid-line: got %s", got.Kind)
	}
	got := line.Match("x\nAction: y", Position{AtStart: true}, false)
	if got.Kind != Matched || got.Before != "x\n" {
		t.Fatalf("line anchor: got %s before=%q", got.Kind, got.Before)
	}
	if got := line.Match("Action:", Position{AtLineStart: true}, false); got.Kind != Matched {
		t.Fatalf("line anchor after newline: got %s", got.Kind)
	}
}

func TestMarkerMatcher_NoMarkers(t *testing.T) {
	m := NewMarkerMatcher(nil, dialect.AnchorAnywhere)
	if got := m.Match("anything", Position{}, false); got.Kind != RuledOut || got.Safe != 8 {
		t.Fatalf("got %s safe=%d", got.Kind, got.Safe)
	}
}
