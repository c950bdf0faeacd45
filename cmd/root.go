package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Tests call it to get fresh flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "weekly-report",
		Short: "Weekly status report service and tools.",
		Long: `weekly-report runs the weekly status report API and offers small helpers
for working with ISO report weeks and exported report lists.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newWeekCmd())
	root.AddCommand(newSummarizeCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
