package handlers

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"threatbrief/internal/config"
	"threatbrief/internal/feeds"
)

// NewFeedsCmd creates the feeds command
func NewFeedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feeds",
		Short: "List the configured feed sources",
		Long: `List every configured feed endpoint with its derived display name.

Sources come from the feeds.sources section of the config file; when none
are configured the built-in registry is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedsList()
		},
	}
}

func runFeedsList() error {
	cfg := config.Get()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL")
	for _, src := range cfg.Feeds.Sources {
		source := feeds.Source{URL: src.URL, Name: src.Name}
		fmt.Fprintf(w, "%s\t%s\n", source.DisplayName(), source.URL)
	}
	return w.Flush()
}
