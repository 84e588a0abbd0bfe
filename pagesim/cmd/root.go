// Package cmd provides the command-line interface for pagesim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pagesim",
		Short: "pagesim simulates page replacement together with a TLB.",
		Long: `pagesim replays a reference string against a main memory ` +
			`with a given number of frames and a 3-entry TLB, using FIFO, ` +
			`LRU or Optimal replacement. It prints every access or serves ` +
			`simulations over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnvFile(envFileName)
		},
	}

	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRunsCmd())

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}
}
