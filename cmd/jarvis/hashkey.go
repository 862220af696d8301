package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/auth"
)

// newHashKeyCmd prints an Argon2id hash for security.api_key_hash. With no
// argument a fresh random key is generated and printed alongside its hash.
func newHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key [key]",
		Short: "Hash an API key for the config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				generated, err := auth.GenerateKey()
				if err != nil {
					return fmt.Errorf("generating key: %w", err)
				}
				key = generated
				fmt.Fprintf(out, "key:  %s\n", key)
			}

			hash, err := auth.HashKey(key)
			if err != nil {
				return fmt.Errorf("hashing key: %w", err)
			}
			fmt.Fprintf(out, "hash: %s\n", hash)
			return nil
		},
	}
}
