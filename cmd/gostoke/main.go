// Command gostoke is the CLI front-end for the superoptimizer: it reads
// an assembly-text file, searches for a cheaper equivalent sequence
// under the chosen strategy and cost metric, and reports the result.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand builds the gostoke command tree.
func newRootCommand() *cobra.Command {
	opts := newOptions()

	cmd := &cobra.Command{
		Use:   "gostoke <file>",
		Short: "Search for a cheaper equivalent instruction sequence",
		Long: `gostoke reads a fixed-width RISC instruction sequence from an
assembly-text file and searches for a cheaper sequence proven (or, in
fast-only mode, tested) equivalent to it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd.Context(), args[0], opts, cmd.OutOrStdout())
		},
	}

	opts.registerFlags(cmd.Flags())
	return cmd
}
