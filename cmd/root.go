// Package cmd wires the wagate CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wagate",
		Short: "Multi-tenant messaging session gateway",
		Long: "wagate keeps one long-lived protocol session per tenant connection:\n" +
			"pairing via scannable codes, supervised reconnects, and state\n" +
			"broadcasts to subscribers.",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(connectionsCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
