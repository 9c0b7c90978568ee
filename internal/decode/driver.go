package decode

import (
	"context"
	"encoding/json"
	"iter"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/strongdm/turnstream/internal/dialect"
	"github.com/strongdm/turnstream/internal/llm"
)

// TurnResult is one decoded turn.
type TurnResult struct {
	ID           string            `json:"id"`
	Dialect      string            `json:"dialect"`
	Role         llm.Role          `json:"role,omitempty"`
	Content      string            `json:"content"`
	Reasoning    string            `json:"reasoning_content,omitempty"`
	ToolCall     *llm.ToolCall     `json:"tool_call,omitempty"`
	FinishReason *llm.FinishReason `json:"finish_reason,omitempty"`
	// Raw is the last backend payload seen during the turn.
	Raw      json.RawMessage `json:"raw,omitempty"`
	Deltas   int             `json:"deltas"`
	Appended bool            `json:"appended"`
}

// Message is the assistant message this turn contributes to history.
func (r TurnResult) Message() llm.Message {
	return llm.Message{Role: r.Role, Content: r.Content, Reasoning: r.Reasoning, ToolCall: r.ToolCall}
}

// History receives at most one message per completed turn.
type History interface {
	Append(msg llm.Message)
}

// Driver runs turns for one dialect against one history. Turns may overlap; each Decode
// call owns its own Decoder.
type Driver struct {
	cfg     dialect.Config
	history History
	opts    []Option
	log     zerolog.Logger

	mu   sync.Mutex
	last *TurnResult
}

func NewDriver(cfg dialect.Config, history History, opts ...Option) (*Driver, error) {
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Driver{
		cfg:     cfg,
		history: history,
		opts:    opts,
		log:     buildOptions(opts).log.With().Str("dialect", cfg.Name).Logger(),
	}, nil
}

// Decode returns the lazy event sequence of one turn. Nothing is pulled from deltas until
// the caller ranges. When deltas is exhausted the turn is finalized, recorded as the most
// recent result and, if it qualifies, appended to history. A transport error or context
// cancellation is yielded as the sequence's error and leaves history untouched, as does
// a caller that stops ranging early.
func (dr *Driver) Decode(ctx context.Context, deltas iter.Seq2[llm.Delta, error]) iter.Seq2[llm.StreamEvent, error] {
	return dr.turn(ctx, deltas, nil)
}

func (dr *Driver) turn(ctx context.Context, deltas iter.Seq2[llm.Delta, error], done func(TurnResult)) iter.Seq2[llm.StreamEvent, error] {
	return func(yield func(llm.StreamEvent, error) bool) {
		fail := func(err error) {
			yield(llm.StreamEvent{Type: llm.StreamEventError, Err: err}, err)
		}
		id, err := llm.NewTurnID()
		if err != nil {
			fail(err)
			return
		}
		opts := append(slices.Clone(dr.opts), WithLogger(dr.log.With().Str("turn", id).Logger()))
		dec, err := NewDecoder(dr.cfg, opts...)
		if err != nil {
			fail(err)
			return
		}
		log := dec.log
		emit := func(evs []llm.StreamEvent) bool {
			for _, ev := range evs {
				if !yield(ev, nil) {
					log.Debug().Msg("consumer stopped; turn abandoned")
					return false
				}
			}
			return true
		}

		for delta, err := range deltas {
			if err != nil {
				log.Debug().Err(err).Msg("transport failed")
				fail(llm.WrapContextError("", err))
				return
			}
			if err := ctx.Err(); err != nil {
				fail(llm.WrapContextError("", err))
				return
			}
			if !emit(dec.Feed(delta)) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			fail(llm.WrapContextError("", err))
			return
		}
		if !emit(dec.Finish()) {
			return
		}

		res := dec.Result()
		res.ID = id
		if dr.qualifies(res) {
			if dr.history != nil {
				dr.history.Append(res.Message())
				res.Appended = true
			}
		}
		dr.mu.Lock()
		dr.last = &res
		dr.mu.Unlock()
		if done != nil {
			done(res)
		}
		log.Debug().
			Int("deltas", res.Deltas).
			Int("content_bytes", len(res.Content)).
			Bool("tool_call", res.ToolCall != nil).
			Bool("appended", res.Appended).
			Msg("turn complete")
	}
}

// Run drains Decode and returns the finished turn.
func (dr *Driver) Run(ctx context.Context, deltas iter.Seq2[llm.Delta, error]) (TurnResult, error) {
	var res TurnResult
	for _, err := range dr.turn(ctx, deltas, func(r TurnResult) { res = r }) {
		if err != nil {
			return TurnResult{}, err
		}
	}
	return res, nil
}

// MostRecentResult returns the last completed turn.
func (dr *Driver) MostRecentResult() (TurnResult, bool) {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	if dr.last == nil {
		return TurnResult{}, false
	}
	return *dr.last, true
}

// qualifies applies the history rule: a role must have been seen, and the turn must
// carry visible content, or a tool call when the dialect appends tool-call turns.
func (dr *Driver) qualifies(r TurnResult) bool {
	if r.Role == "" {
		return false
	}
	if r.Content != "" {
		return true
	}
	return r.ToolCall != nil && dr.cfg.AppendToolCallTurns
}
