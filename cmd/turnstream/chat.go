package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strongdm/turnstream/internal/config"
	"github.com/strongdm/turnstream/internal/conversation"
	"github.com/strongdm/turnstream/internal/decode"
	"github.com/strongdm/turnstream/internal/llm"
	"github.com/strongdm/turnstream/internal/transport/langchain"
	"github.com/strongdm/turnstream/internal/transport/openaicompat"
	"github.com/strongdm/turnstream/internal/transport/replay"
)

type streamFunc func(ctx context.Context, msgs []llm.Message) iter.Seq2[llm.Delta, error]

func failed(err error) iter.Seq2[llm.Delta, error] {
	return func(yield func(llm.Delta, error) bool) { yield(llm.Delta{}, err) }
}

func (a *app) backend(provider string) (streamFunc, error) {
	s := a.settings
	switch s.Backend {
	case config.BackendOpenAICompat:
		c := openaicompat.NewClient(s.BaseURL, s.APIKey)
		if provider != "" {
			c.Provider = provider
		}
		c.Log = a.log
		return func(ctx context.Context, msgs []llm.Message) iter.Seq2[llm.Delta, error] {
			seq, err := c.Stream(ctx, openaicompat.Request{Model: s.Model, Messages: msgs})
			if err != nil {
				return failed(err)
			}
			return seq
		}, nil
	case config.BackendLangchainOpenAI, config.BackendLangchainOllama:
		var t *langchain.Transport
		var err error
		if s.Backend == config.BackendLangchainOpenAI {
			t, err = langchain.NewOpenAI(s.Model, s.BaseURL, s.APIKey)
		} else {
			t, err = langchain.NewOllama(s.Model, s.BaseURL)
		}
		if err != nil {
			return nil, err
		}
		t.Log = a.log
		return t.Stream, nil
	}
	return nil, fmt.Errorf("unknown backend %q", s.Backend)
}

func (a *app) chatCmd() *cobra.Command {
	var system, prompt, record string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a model, decoding each reply with the selected dialect",
		Long: `Start an interactive chat. Each line read from stdin is one user turn; the
reply is decoded as it streams. Use --prompt for a single non-interactive turn.
With --record, every received delta is appended to a file that replay accepts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.settings.Model == "" {
				return fmt.Errorf("%s_MODEL is required for chat", config.EnvPrefix)
			}
			cfg, err := a.dialect()
			if err != nil {
				return err
			}
			stream, err := a.backend(cfg.Provider)
			if err != nil {
				return err
			}
			conv := conversation.New()
			if system != "" {
				conv.AppendSystemMessage(system)
			}
			dr, err := decode.NewDriver(cfg, conv, decode.WithLogger(a.log))
			if err != nil {
				return err
			}
			var rec io.Writer
			if record != "" {
				f, err := os.OpenFile(record, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("open record file: %w", err)
				}
				defer f.Close()
				rec = f
			}
			turn := func(input string) error {
				n := conv.Len()
				conv.AppendUserInput(input)
				deltas := stream(cmd.Context(), conv.Messages())
				if rec != nil {
					deltas = replay.Record(rec, deltas)
				}
				r := &renderer{out: a.stdout, errOut: a.stderr}
				if err := r.run(dr.Decode(cmd.Context(), deltas)); err != nil {
					conv.Truncate(n)
					return err
				}
				fmt.Fprintln(a.stdout)
				return nil
			}
			if prompt != "" {
				return turn(prompt)
			}

			a.log.Info().Str("dialect", cfg.Name).Str("model", a.settings.Model).Msg("chat started; Ctrl-D to exit")
			sc := bufio.NewScanner(a.stdin)
			for {
				fmt.Fprint(a.stderr, "> ")
				if !sc.Scan() {
					return sc.Err()
				}
				input := strings.TrimSpace(sc.Text())
				if input == "" {
					continue
				}
				if err := turn(input); err != nil {
					a.log.Error().Err(err).Msg("turn failed")
				}
			}
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "system message")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "send one message and exit")
	cmd.Flags().StringVar(&record, "record", "", "append received deltas to this JSONL file")
	return cmd
}
