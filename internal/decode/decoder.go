package decode

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/strongdm/turnstream/internal/dialect"
	"github.com/strongdm/turnstream/internal/llm"
)

type State int

const (
	StateStart State = iota
	StateStreaming
	StateToolCallCapture
	StateReasoningCapture
	StateSealed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateStreaming:
		return "streaming"
	case StateToolCallCapture:
		return "tool_call_capture"
	case StateReasoningCapture:
		return "reasoning_capture"
	case StateSealed:
		return "sealed"
	}
	return "unknown"
}

type options struct {
	log zerolog.Logger
}

type Option func(*options)

// WithLogger sets the logger used for decode diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Decoder demultiplexes one turn of deltas for one dialect. It is not safe for
// concurrent use; each turn gets its own Decoder.
type Decoder struct {
	cfg   dialect.Config
	log   zerolog.Logger
	state State
	strat toolStrategy

	splitter *ReasoningSplitter
	tools    *ToolCallAccumulator

	role      llm.Role
	content   strings.Builder
	reasoning strings.Builder
	finish    llm.FinishReason
	sawFinish bool
	raw       json.RawMessage
	deltas    int
	done      bool
}

// NewDecoder builds a decoder for cfg. cfg is defaulted and validated; an invalid
// config is an error.
func NewDecoder(cfg dialect.Config, opts ...Option) (*Decoder, error) {
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	d := &Decoder{
		cfg:      cfg,
		log:      o.log.With().Str("dialect", cfg.Name).Logger(),
		splitter: NewReasoningSplitter(cfg),
		tools:    NewToolCallAccumulator(cfg.ContinueAfterSeal),
	}
	switch cfg.ToolCalls {
	case dialect.ToolCallsPrefix:
		d.strat = newPrefixStrategy(cfg)
	case dialect.ToolCallsTag:
		d.strat = newTagStrategy(cfg)
	default:
		d.strat = passthroughStrategy{}
	}
	return d, nil
}

func (d *Decoder) State() State { return d.state }

// Feed processes one delta and returns the events it releases. Fragments within a
// delta are handled in the order reasoning, content, tool call, finish reason.
func (d *Decoder) Feed(delta llm.Delta) []llm.StreamEvent {
	if d.done {
		return nil
	}
	d.deltas++
	if len(delta.Raw) > 0 {
		d.raw = delta.Raw
	}
	if delta.Role != "" {
		d.role = delta.Role
	}
	if d.state == StateStart {
		d.state = StateStreaming
	}

	var out []llm.StreamEvent
	reasoning := deref(delta.Reasoning)
	content := deref(delta.Content)
	if d.cfg.Reasoning == dialect.ReasoningInline && content != "" {
		var r string
		r, content = d.splitter.Inline(content)
		reasoning += r
	}
	reasoning, content = d.splitter.Channel(reasoning, content)

	out = d.emitReasoning(out, reasoning)
	d.syncReasoningState()
	if content != "" {
		out = d.text(out, content)
	}
	if delta.ToolCall != nil {
		d.addToolFragment(*delta.ToolCall)
	}
	if delta.FinishReason != "" {
		d.observeFinish(delta.FinishReason)
	}
	return out
}

// Finish flushes held text, resolves any open capture and seals the turn. A tool call,
// if any, is reported once as a TOOL_CALL_END event.
func (d *Decoder) Finish() []llm.StreamEvent {
	if d.done {
		return nil
	}
	var out []llm.StreamEvent
	if r, c := d.splitter.Finish(); r != "" || c != "" {
		out = d.emitReasoning(out, r)
		if c != "" {
			out = d.text(out, c)
		}
	}
	if d.state != StateSealed {
		out = append(out, d.strat.finish(d)...)
	}
	if d.tools.Open() {
		d.markFunctionCall()
		d.tools.Seal(d.finish.Reason)
		out = append(out, llm.StreamEvent{Type: llm.StreamEventToolCallEnd, ToolCall: d.tools.Call()})
	}
	d.state = StateSealed
	d.done = true
	return out
}

// Result is the turn as decoded so far. After Finish it is final.
func (d *Decoder) Result() TurnResult {
	r := TurnResult{
		Dialect:   d.cfg.Name,
		Role:      d.role,
		Content:   d.content.String(),
		Reasoning: d.reasoning.String(),
		ToolCall:  d.tools.Call(),
		Raw:       d.raw,
		Deltas:    d.deltas,
	}
	if d.sawFinish || d.tools.Open() {
		f := d.finish
		r.FinishReason = &f
	}
	return r
}

func (d *Decoder) syncReasoningState() {
	if d.cfg.Reasoning == dialect.ReasoningNone || d.state == StateSealed || d.state == StateToolCallCapture {
		return
	}
	if d.splitter.Closed() {
		d.state = StateStreaming
		return
	}
	if d.cfg.Reasoning == dialect.ReasoningInline || d.reasoning.Len() > 0 {
		d.state = StateReasoningCapture
	}
}

func (d *Decoder) text(out []llm.StreamEvent, s string) []llm.StreamEvent {
	if d.state == StateSealed {
		d.log.Debug().Int("bytes", len(s)).Msg("dropping content after seal")
		return out
	}
	return append(out, d.strat.content(d, s)...)
}

func (d *Decoder) emitText(out []llm.StreamEvent, s string) []llm.StreamEvent {
	if s == "" {
		return out
	}
	d.content.WriteString(s)
	return append(out, llm.TextEvent(s))
}

func (d *Decoder) emitReasoning(out []llm.StreamEvent, s string) []llm.StreamEvent {
	if s == "" || d.state == StateSealed {
		return out
	}
	d.reasoning.WriteString(s)
	return append(out, llm.ReasoningEvent(s))
}

func (d *Decoder) addToolFragment(f llm.ToolCallFragment) {
	if d.cfg.ToolCalls == dialect.ToolCallsNone {
		d.log.Debug().Msg("ignoring tool call fragment for dialect without tool calls")
		return
	}
	first := !d.tools.Open()
	if !d.tools.Add(f) {
		d.log.Debug().Int("index", f.Index).Bool("sealed", d.tools.Sealed()).Msg("tool call fragment rejected")
		return
	}
	d.markFunctionCall()
	if first && d.state != StateSealed {
		d.log.Debug().Msg("native tool call started")
		d.state = StateToolCallCapture
	}
}

// markFunctionCall makes function_call the effective finish reason, keeping the raw
// backend value if one was seen.
func (d *Decoder) markFunctionCall() {
	d.finish.Reason = llm.FinishReasonFunctionCall
}

func (d *Decoder) observeFinish(raw string) {
	fr := llm.NormalizeFinishReason(d.cfg.Provider, raw)
	d.sawFinish = true
	d.finish.Raw = fr.Raw
	if d.tools.Open() {
		d.markFunctionCall()
	} else {
		d.finish.Reason = fr.Reason
	}
	if fr.Reason != llm.FinishReasonFunctionCall {
		return
	}
	d.tools.Seal(fr.Reason)
	if d.cfg.ContinueAfterSeal {
		return
	}
	if d.strat.sealOnFinishReason() {
		d.log.Debug().Msg("turn sealed by finish reason")
		d.state = StateSealed
	}
}

// captured records a parsed tool call from text, or applies the malformed policy.
func (d *Decoder) captured(out []llm.StreamEvent, name, args string, err error, original string) ([]llm.StreamEvent, bool) {
	if err == nil {
		if d.tools.Set(name, args) {
			d.tools.Seal(llm.FinishReasonFunctionCall)
		}
		d.markFunctionCall()
		d.log.Debug().Str("tool", name).Msg("tool call captured from text")
		return out, true
	}
	if d.tools.Open() {
		// The backend delivered the call as structured fragments as well.
		return out, true
	}
	d.log.Debug().Err(err).Str("policy", string(d.cfg.OnMalformed)).Msg("malformed tool payload")
	if d.cfg.OnMalformed == dialect.MalformedContent {
		out = d.emitText(out, original)
	}
	return out, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
