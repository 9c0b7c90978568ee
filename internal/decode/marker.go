package decode

import (
	"github.com/strongdm/turnstream/internal/dialect"
)

type MatchKind int

const (
	// RuledOut: nothing in the buffer can begin a marker.
	RuledOut MatchKind = iota
	// NoMatchYet: part of the buffer may still grow into a marker.
	NoMatchYet
	// Matched: a marker was found and split out.
	Matched
)

func (k MatchKind) String() string {
	switch k {
	case RuledOut:
		return "ruled_out"
	case NoMatchYet:
		return "no_match_yet"
	case Matched:
		return "matched"
	}
	return "unknown"
}

// Position describes what precedes offset 0 of a buffer handed to Match.
type Position struct {
	AtStart     bool // offset 0 is the first byte of the response
	AtLineStart bool // offset 0 follows a newline (or the response start)
}

type Match struct {
	Kind MatchKind
	// Safe is the length of the buffer prefix that can never be part of a marker.
	// It equals len(buf) for RuledOut and the marker start for Matched.
	Safe   int
	Marker string
	Before string
	After  string
}

type trieNode struct {
	next map[byte]*trieNode
	// marker is the full marker ending at this node, if any.
	marker string
	// reach is the length of the longest marker passing through this node.
	reach int
}

// MarkerMatcher finds the first of a set of literal markers in a growing buffer.
// Overlapping candidates resolve to the longest marker, ties to the earliest start.
// A decision is deferred while a longer candidate could still complete, so the result
// does not depend on how the buffer was split into fragments.
type MarkerMatcher struct {
	root   *trieNode
	anchor dialect.Anchor
	maxLen int
}

func NewMarkerMatcher(markers []string, anchor dialect.Anchor) *MarkerMatcher {
	m := &MarkerMatcher{root: &trieNode{}, anchor: anchor}
	for _, mk := range markers {
		if mk == "" {
			continue
		}
		if len(mk) > m.maxLen {
			m.maxLen = len(mk)
		}
		n := m.root
		for i := 0; i < len(mk); i++ {
			if n.reach < len(mk) {
				n.reach = len(mk)
			}
			if n.next == nil {
				n.next = map[byte]*trieNode{}
			}
			c, ok := n.next[mk[i]]
			if !ok {
				c = &trieNode{}
				n.next[mk[i]] = c
			}
			n = c
		}
		if n.reach < len(mk) {
			n.reach = len(mk)
		}
		n.marker = mk
	}
	return m
}

// MaxLen is the longest configured marker.
func (m *MarkerMatcher) MaxLen() int { return m.maxLen }

func (m *MarkerMatcher) empty() bool { return m == nil || m.maxLen == 0 }

func (m *MarkerMatcher) startAllowed(buf string, i int, pos Position) bool {
	switch m.anchor {
	case dialect.AnchorStart:
		return i == 0 && pos.AtStart
	case dialect.AnchorLine:
		if i == 0 {
			return pos.AtLineStart || pos.AtStart
		}
		return buf[i-1] == '\n'
	default:
		return true
	}
}

// Match classifies buf. With final set no more input will arrive, so partial
// candidates are abandoned instead of deferring the decision.
func (m *MarkerMatcher) Match(buf string, pos Position, final bool) Match {
	if m.empty() || buf == "" {
		return Match{Kind: RuledOut, Safe: len(buf)}
	}

	type hit struct{ start, length int }
	var hits []hit
	// partials holds starts whose walk ran off the end of buf inside the trie,
	// with the longest marker still reachable from there.
	var partials []hit

	for i := 0; i < len(buf); i++ {
		if !m.startAllowed(buf, i, pos) {
			continue
		}
		n := m.root
		j := i
		for ; j < len(buf); j++ {
			c, ok := n.next[buf[j]]
			if !ok {
				break
			}
			n = c
			if n.marker != "" {
				hits = append(hits, hit{i, len(n.marker)})
			}
		}
		if j == len(buf) && len(n.next) > 0 && !final {
			partials = append(partials, hit{i, n.reach})
		}
	}

	if len(hits) == 0 {
		if len(partials) == 0 {
			return Match{Kind: RuledOut, Safe: len(buf)}
		}
		return Match{Kind: NoMatchYet, Safe: partials[0].start}
	}

	end := len(buf) + 1
	for _, h := range hits {
		if e := h.start + h.length; e < end {
			end = e
		}
	}
	best := hit{start: -1}
	for _, h := range hits {
		if h.start >= end {
			continue
		}
		if h.length > best.length || (h.length == best.length && h.start < best.start) {
			best = h
		}
	}
	for _, p := range partials {
		if p.start >= end {
			continue
		}
		if p.length > best.length || (p.length == best.length && p.start < best.start) {
			safe := p.start
			if best.start < safe {
				safe = best.start
			}
			for _, h := range hits {
				if h.start < safe {
					safe = h.start
				}
			}
			return Match{Kind: NoMatchYet, Safe: safe}
		}
	}
	marker := buf[best.start : best.start+best.length]
	return Match{
		Kind:   Matched,
		Safe:   best.start,
		Marker: marker,
		Before: buf[:best.start],
		After:  buf[best.start+best.length:],
	}
}
