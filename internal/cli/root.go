package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stabwatch",
	Short: "Continuous-time stability monitoring for agent runtimes",
	Long:  "Integrates error, exception, and panic signals into a single stability value,\nclassifies it into graded zones, and trips a kill-switch when the system\nescapes safe bounds.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
