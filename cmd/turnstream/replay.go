package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strongdm/turnstream/internal/conversation"
	"github.com/strongdm/turnstream/internal/decode"
	"github.com/strongdm/turnstream/internal/transport/replay"
)

func (a *app) replayCmd() *cobra.Command {
	var file string
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "replay --file <deltas.jsonl>",
		Short: "Decode a recorded delta stream",
		Long: `Replay a recorded response through a dialect's decoder. The file holds one
JSON delta per line ({"role":...,"content":...,"reasoning_content":...,
"tool_call":{...},"finish_reason":...}).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.dialect()
			if err != nil {
				return err
			}
			conv := conversation.New()
			dr, err := decode.NewDriver(cfg, conv, decode.WithLogger(a.log))
			if err != nil {
				return err
			}
			r := &renderer{out: a.stdout, errOut: a.stderr, json: jsonOut}
			if err := r.run(dr.Decode(cmd.Context(), replay.Open(file))); err != nil {
				return err
			}
			res, _ := dr.MostRecentResult()
			if jsonOut {
				return json.NewEncoder(a.stdout).Encode(res)
			}
			if res.FinishReason != nil {
				fmt.Fprintf(a.stderr, "\n[finish] %s\n", res.FinishReason.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "recorded deltas (JSONL)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print events and the turn result as JSON lines")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
