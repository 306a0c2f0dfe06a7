// Package cmd defines and implements the CLI commands for the deedcrawler
// executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deedcrawler",
		Short: "Incremental crawler for Bexar County deed records",
		Long: `deedcrawler harvests public real-property deed records from the
Bexar County records portal in resumable, rate-limited sessions,
normalizes each record, and persists it to Postgres. Progress is
checkpointed after every page so repeated time-limited runs never lose
or duplicate work.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (optional; environment variables take precedence)")

	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
