package main

import (
	goflag "flag"

	"github.com/spf13/cobra"
)

// newRootCommand builds the pdptw-alns cobra command tree: a root that
// carries klog's standard flags (bound via pflag.AddGoFlagSet, the usual
// way a cobra CLI picks up klog's verbosity/logtostderr flags) plus the
// solve subcommand.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdptw-alns",
		Short: "Adaptive Large Neighborhood Search solver for the Pickup-and-Delivery Problem with Time Windows",
	}
	root.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
	root.AddCommand(newSolveCommand())
	return root
}
