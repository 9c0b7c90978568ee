package decode

import (
	"strings"
)

// Split is the outcome of feeding text to a FragmentBuffer.
type Split struct {
	// Flush is text proven free of markers, ready to emit.
	Flush   string
	Matched bool
	Marker  string
	// After is the text that followed the marker in the buffer.
	After string
}

// FragmentBuffer holds content that might still turn out to be the start of a marker
// and releases everything else as soon as possible.
type FragmentBuffer struct {
	m       *MarkerMatcher
	pending string
	// started is set once any text has been flushed or consumed.
	started  bool
	lastByte byte
	// trimArtifacts withholds a trailing code-fence opener and drops it if a marker
	// follows.
	trimArtifacts bool
}

func NewFragmentBuffer(m *MarkerMatcher, trimArtifacts bool) *FragmentBuffer {
	return &FragmentBuffer{m: m, trimArtifacts: trimArtifacts}
}

func (b *FragmentBuffer) Pending() string { return b.pending }

func (b *FragmentBuffer) position() Position {
	return Position{
		AtStart:     !b.started,
		AtLineStart: !b.started || b.lastByte == '\n',
	}
}

// Consume records text that left the stream without passing through the buffer,
// such as a captured tool payload, so anchors keep tracking the right position.
func (b *FragmentBuffer) Consume(s string) {
	if s == "" {
		return
	}
	b.started = true
	b.lastByte = s[len(s)-1]
}

func (b *FragmentBuffer) release(n int) string {
	out := b.pending[:n]
	b.pending = b.pending[n:]
	b.Consume(out)
	return out
}

// Write appends s and returns whatever can be decided.
func (b *FragmentBuffer) Write(s string) Split {
	b.pending += s
	return b.evaluate(false)
}

// Finish resolves the buffer at end of input. Partial markers are released as text.
func (b *FragmentBuffer) Finish() Split {
	return b.evaluate(true)
}

func (b *FragmentBuffer) evaluate(final bool) Split {
	if b.pending == "" {
		return Split{}
	}
	pos := b.position()
	res := b.m.Match(b.pending, pos, final)
	switch res.Kind {
	case Matched:
		before := res.Before
		if b.trimArtifacts {
			before = before[:fenceOpener(before, pos.AtLineStart, b.m.MaxLen(), false)]
		}
		b.Consume(b.pending[:res.Safe+len(res.Marker)])
		b.pending = ""
		return Split{Flush: before, Matched: true, Marker: res.Marker, After: res.After}
	default:
		n := res.Safe
		if b.trimArtifacts && !final {
			n = fenceOpener(b.pending[:n], pos.AtLineStart, b.m.MaxLen(), true)
		}
		return Split{Flush: b.release(n)}
	}
}

// fenceOpener returns where a trailing code-fence opener starts in s, or len(s). An
// opener is three backticks at a line start, an optional language tag, then
// whitespace, at most limit bytes in all. With partial set, a line-start "`" or "``"
// also counts since it may still grow into one. Every prefix of an opener is a partial
// opener, so holding partials back while streaming and dropping full openers before a
// marker gives the same text however the response was split.
func fenceOpener(s string, lineStart bool, limit int, partial bool) int {
	n := len(s)
	i := skipSpaceBack(s, n)
	j := i
	for j > 0 && isLangByte(s[j-1]) {
		j--
	}
	k := j
	ticks := 0
	for k > 0 && s[k-1] == '`' && ticks < 3 {
		k--
		ticks++
	}
	switch {
	case ticks == 3:
	case partial && ticks > 0 && j == n:
	default:
		return n
	}
	atLine := (k == 0 && lineStart) || (k > 0 && s[k-1] == '\n')
	if !atLine || n-k > limit {
		return n
	}
	return k
}

func skipSpaceBack(s string, i int) int {
	for i > 0 && strings.IndexByte(" \t\r\n", s[i-1]) >= 0 {
		i--
	}
	return i
}

func isLangByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '+' || c == '.'
}
