// Jarvis Core - voice and text control for a Home Assistant installation.
//
// This is the main entry point. The serve subcommand runs the HTTP API and
// the command pipeline; parse and hash-key are offline operator tools.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "jarvis",
		Short:         "Jarvis Core - smart home command gateway",
		Long:          "Jarvis turns text commands into validated Home Assistant service calls with a security audit trail.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the YAML config file (default $JARVIS_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newParseCmd())
	root.AddCommand(newHashKeyCmd())
	return root
}

// getConfigPath returns the configuration file path.
// The --config flag wins, then JARVIS_CONFIG, then the default.
func getConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("JARVIS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
