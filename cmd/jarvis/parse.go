package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/intent"
)

// parseOutput is what `jarvis parse` prints.
type parseOutput struct {
	Input      string        `json:"input"`
	Normalized string        `json:"normalized"`
	Rule       string        `json:"rule,omitempty"`
	Intent     intent.Intent `json:"intent"`
	Parameters intent.Params `json:"parameters"`
}

// newParseCmd runs the intent parser without touching any device.
func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "parse <text>",
		Short:   "Show the intent and parameters parsed from a command",
		Example: `  jarvis parse "turn on the living room lights"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			in, params := intent.Parse(text)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(parseOutput{
				Input:      text,
				Normalized: intent.Normalize(text),
				Rule:       intent.MatchingRule(text),
				Intent:     in,
				Parameters: params,
			})
		},
	}
}
