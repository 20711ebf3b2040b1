package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "saturn",
	Short: "Saturn - record retention engine",
	Long: `Saturn is a record retention engine that attaches retention rules to
documents and enforces the resulting retention periods.

It turns documents into enforced or flexible records, providing:
  - Immediate, event-based, and metadata-based retention starting points
  - Legal hold independent of retention expiration
  - Begin and end action sequences around the retention period
  - An asynchronous evaluation queue for event-triggered rules
  - A scheduled sweep that fires end actions when retention elapses

For more information, visit: https://github.com/custodia-hq/saturn`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
