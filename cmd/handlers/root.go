// Package handlers wires the CLI commands to the pipeline internals.
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"threatbrief/internal/config"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "threatbrief",
		Short: "threatbrief ingests cybersecurity feeds and builds a threat newsletter.",
		Long: `threatbrief fetches a set of cybersecurity RSS/Atom feeds, scores and
deduplicates the articles into a bounded threat list, and renders the
result as an editable newsletter payload (markdown plus JSON).`,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.threatbrief.yaml)")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewFeedsCmd())
	rootCmd.AddCommand(NewCacheCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}
