package decode

import (
	"strings"

	"github.com/strongdm/turnstream/internal/dialect"
	"github.com/strongdm/turnstream/internal/llm"
)

// toolStrategy is the part of a dialect that decides what content text means.
type toolStrategy interface {
	content(d *Decoder, s string) []llm.StreamEvent
	finish(d *Decoder) []llm.StreamEvent
	sealOnFinishReason() bool
}

// passthroughStrategy serves dialects without in-band markers. Native tool calls never
// interrupt content.
type passthroughStrategy struct{}

func (passthroughStrategy) content(d *Decoder, s string) []llm.StreamEvent {
	return d.emitText(nil, s)
}

func (passthroughStrategy) finish(*Decoder) []llm.StreamEvent { return nil }
func (passthroughStrategy) sealOnFinishReason() bool          { return true }

// prefixStrategy captures everything after an "Action:"-style marker and parses it at
// end of stream.
type prefixStrategy struct {
	buf     *FragmentBuffer
	marker  string
	capture strings.Builder
}

func newPrefixStrategy(cfg dialect.Config) *prefixStrategy {
	m := NewMarkerMatcher(cfg.ToolMarkers, cfg.MarkerAnchor)
	return &prefixStrategy{buf: NewFragmentBuffer(m, true)}
}

func (p *prefixStrategy) sealOnFinishReason() bool { return false }

func (p *prefixStrategy) content(d *Decoder, s string) []llm.StreamEvent {
	if d.state == StateToolCallCapture && p.marker != "" {
		p.capture.WriteString(s)
		return nil
	}
	return p.apply(d, p.buf.Write(s))
}

func (p *prefixStrategy) apply(d *Decoder, sp Split) []llm.StreamEvent {
	out := d.emitText(nil, sp.Flush)
	if sp.Matched {
		d.log.Debug().Str("marker", sp.Marker).Msg("tool marker matched")
		d.state = StateToolCallCapture
		p.marker = sp.Marker
		p.capture.WriteString(sp.After)
	}
	return out
}

func (p *prefixStrategy) finish(d *Decoder) []llm.StreamEvent {
	var out []llm.StreamEvent
	if p.marker == "" {
		out = p.apply(d, p.buf.Finish())
		if p.marker == "" {
			return out
		}
	}
	payload := p.capture.String()
	name, args, err := ParseActionPayload(payload)
	out, _ = d.captured(out, name, args, err, p.marker+payload)
	return out
}

// tagStrategy parses the payload between an opening and a closing tag as soon as the
// closing tag arrives. A valid payload seals the turn; an invalid one is absorbed and
// scanning resumes after the closing tag.
type tagStrategy struct {
	buf      *FragmentBuffer
	close    *MarkerMatcher
	closeTag string
	marker   string
	capture  string
	// scanned is how much of capture has been searched for closeTag.
	scanned int
}

func newTagStrategy(cfg dialect.Config) *tagStrategy {
	return &tagStrategy{
		buf:      NewFragmentBuffer(NewMarkerMatcher(cfg.ToolMarkers, cfg.MarkerAnchor), true),
		close:    NewMarkerMatcher([]string{cfg.ToolCloseTag}, dialect.AnchorAnywhere),
		closeTag: cfg.ToolCloseTag,
	}
}

func (t *tagStrategy) sealOnFinishReason() bool { return false }

func (t *tagStrategy) content(d *Decoder, s string) []llm.StreamEvent {
	if t.marker != "" {
		t.capture += s
		return t.scanClose(d, nil, false)
	}
	return t.apply(d, nil, t.buf.Write(s), false)
}

func (t *tagStrategy) apply(d *Decoder, out []llm.StreamEvent, sp Split, final bool) []llm.StreamEvent {
	out = d.emitText(out, sp.Flush)
	if !sp.Matched {
		return out
	}
	d.log.Debug().Str("marker", sp.Marker).Msg("tool tag opened")
	d.state = StateToolCallCapture
	t.marker = sp.Marker
	t.capture, t.scanned = sp.After, 0
	return t.scanClose(d, out, final)
}

// scanClose searches capture for the closing tag, resuming where the last scan could
// not have seen a complete tag.
func (t *tagStrategy) scanClose(d *Decoder, out []llm.StreamEvent, final bool) []llm.StreamEvent {
	start := max(0, t.scanned-(len(t.closeTag)-1))
	m := t.close.Match(t.capture[start:], Position{}, final)
	if m.Kind != Matched {
		t.scanned = len(t.capture)
		return out
	}
	payload, rest := t.capture[:start+len(m.Before)], m.After
	opened := t.marker
	t.marker, t.capture, t.scanned = "", "", 0
	t.buf.Consume(opened + payload + t.closeTag)

	name, args, err := ParseToolPayload(payload)
	out, ok := d.captured(out, name, args, err, opened+payload+t.closeTag)
	if ok {
		if strings.TrimSpace(rest) != "" {
			d.log.Debug().Int("bytes", len(rest)).Msg("dropping text after tool call")
		}
		d.state = StateSealed
		return out
	}
	d.state = StateStreaming
	if rest == "" {
		return out
	}
	return t.apply(d, out, t.buf.Write(rest), false)
}

func (t *tagStrategy) finish(d *Decoder) []llm.StreamEvent {
	var out []llm.StreamEvent
	if t.marker == "" {
		out = t.apply(d, out, t.buf.Finish(), true)
	} else {
		out = t.scanClose(d, out, true)
	}
	// Anything still pending was never closed or is trailing free text.
	for d.state != StateSealed && (t.marker != "" || t.buf.Pending() != "") {
		if t.marker != "" {
			opened := t.marker + t.capture
			t.marker, t.capture, t.scanned = "", "", 0
			d.log.Debug().Msg("tool tag never closed")
			out, _ = d.captured(out, "", "", errUnclosedTag, opened)
			d.state = StateStreaming
			continue
		}
		out = t.apply(d, out, t.buf.Finish(), true)
	}
	return out
}
