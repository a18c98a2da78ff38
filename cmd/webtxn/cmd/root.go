// Package cmd provides the command-line interface for webtxn.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "webtxn",
	Short: "webtxn instruments HTTP servers with per-request transactions.",
	Long: `webtxn instruments HTTP servers with per-request transactions. ` +
		`The CLI currently provides a demo server wired with the ` +
		`instrumentation middleware (serve) and a report over locally ` +
		`recorded transactions (report).`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
