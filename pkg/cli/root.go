package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mocket",
		Short: "mocket is a rule-driven HTTP and WebSocket mock server",
		Long: `mocket answers HTTP requests and WebSocket frames from declarative setups.

Each setup pairs a match on the incoming message with a response. The most
specific setup wins; among equals the one registered last wins. WebSocket
setups can join connections to named groups and broadcast to them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newValidateCmd(),
		newProbeCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
