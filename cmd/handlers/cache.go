package handlers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"threatbrief/internal/config"
	"threatbrief/internal/store"
)

// NewCacheCmd creates the cache management command
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the threat and summary caches",
	}

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheStats()
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the threat and summary caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear()
		},
	}
}

func runCacheStats() error {
	cfg := config.Get()

	threatCache := store.LoadThreatCache(filepath.Join(cfg.Cache.Directory, cfg.Cache.ThreatFile))
	fmt.Printf("Cached threats: %d\n", len(threatCache.Articles))
	if !threatCache.LastCleanup.IsZero() {
		fmt.Printf("Last cleanup:   %s\n", threatCache.LastCleanup.Format("2006-01-02 15:04:05 MST"))
	}

	summaryStore, err := store.NewStore(cfg.Cache.Directory)
	if err != nil {
		return fmt.Errorf("failed to open summary cache: %w", err)
	}
	defer func() { _ = summaryStore.Close() }()

	stats, err := summaryStore.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read summary cache stats: %w", err)
	}
	fmt.Printf("Cached summaries: %d (%d bytes)\n", stats.SummaryCount, stats.CacheSize)
	return nil
}

func runCacheClear() error {
	cfg := config.Get()

	cachePath := filepath.Join(cfg.Cache.Directory, cfg.Cache.ThreatFile)
	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove threat cache: %w", err)
	}

	summaryStore, err := store.NewStore(cfg.Cache.Directory)
	if err != nil {
		return fmt.Errorf("failed to open summary cache: %w", err)
	}
	defer func() { _ = summaryStore.Close() }()

	if err := summaryStore.Clear(); err != nil {
		return fmt.Errorf("failed to clear summary cache: %w", err)
	}

	fmt.Println("Caches cleared")
	return nil
}
