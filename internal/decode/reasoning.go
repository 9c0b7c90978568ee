package decode

import (
	"strings"

	"github.com/strongdm/turnstream/internal/dialect"
)

// ReasoningSplitter separates reasoning text from answer text.
//
// In channel mode the backend labels each fragment, and the splitter only tracks the
// moment reasoning closes. In inline mode one text channel carries both, separated by
// a delimiter that is consumed.
type ReasoningSplitter struct {
	mode dialect.ReasoningMode

	sawReasoning bool
	closed       bool

	// inline mode
	delim       *FragmentBuffer
	openTag     string
	openChecked bool
	head        string
}

func NewReasoningSplitter(cfg dialect.Config) *ReasoningSplitter {
	s := &ReasoningSplitter{mode: cfg.Reasoning, openTag: cfg.ReasoningOpenTag}
	if cfg.Reasoning == dialect.ReasoningInline {
		m := NewMarkerMatcher([]string{cfg.ReasoningDelimiter}, dialect.AnchorAnywhere)
		s.delim = NewFragmentBuffer(m, false)
	}
	if s.openTag == "" {
		s.openChecked = true
	}
	return s
}

// Closed reports whether answer text has started after reasoning.
func (s *ReasoningSplitter) Closed() bool { return s.closed }

// Channel routes one labelled pair of fragments. Late reasoning after close is still
// returned but does not reopen reasoning.
func (s *ReasoningSplitter) Channel(reasoning, content string) (string, string) {
	if reasoning != "" {
		s.sawReasoning = true
	}
	if content != "" && s.sawReasoning {
		s.closed = true
	}
	return reasoning, content
}

// Inline classifies a fragment of the single text channel.
func (s *ReasoningSplitter) Inline(text string) (reasoning, content string) {
	if s.closed {
		return "", text
	}
	if !s.openChecked {
		s.head += text
		switch {
		case strings.HasPrefix(s.head, s.openTag):
			text = s.head[len(s.openTag):]
			s.delim.Consume(s.openTag)
		case strings.HasPrefix(s.openTag, s.head):
			return "", ""
		default:
			text = s.head
		}
		s.openChecked = true
		s.head = ""
	}
	sp := s.delim.Write(text)
	if sp.Matched {
		s.closed = true
		return sp.Flush, sp.After
	}
	return sp.Flush, ""
}

// Finish releases held text. Without a delimiter everything was reasoning.
func (s *ReasoningSplitter) Finish() (reasoning, content string) {
	if s.mode != dialect.ReasoningInline || s.closed {
		return "", ""
	}
	if !s.openChecked {
		s.openChecked = true
		reasoning = s.head
		s.head = ""
	}
	sp := s.delim.Finish()
	if sp.Matched {
		s.closed = true
		return reasoning + sp.Flush, sp.After
	}
	return reasoning + sp.Flush, ""
}
