package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"threatbrief/internal/config"
	"threatbrief/internal/content"
	"threatbrief/internal/core"
	"threatbrief/internal/feeds"
	"threatbrief/internal/links"
	"threatbrief/internal/logger"
	"threatbrief/internal/pipeline"
	"threatbrief/internal/render"
	"threatbrief/internal/scoring"
	"threatbrief/internal/store"
	"threatbrief/internal/summarize"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var (
		topK    int
		probe   bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the ingestion pipeline and render the newsletter",
		Long: `Fetch all configured feeds, score and deduplicate the articles, and
write the newsletter markdown and JSON payload to the output directory.

The run tolerates any number of individual feed failures; with zero
successful fetches it still produces the built-in fallback threat set.

Examples:
  threatbrief generate
  threatbrief generate --top 10 --probe
  threatbrief generate --no-cache`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), topK, probe, noCache)
		},
	}

	cmd.Flags().IntVar(&topK, "top", 0, "override the top-K cutoff (default from config)")
	cmd.Flags().BoolVar(&probe, "probe", false, "probe link reachability with HEAD requests (live network I/O)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore and do not update the threat cache")

	return cmd
}

func runGenerate(ctx context.Context, topK int, probe, noCache bool) error {
	cfg := config.Get()
	now := time.Now().UTC()

	sources := make([]feeds.Source, 0, len(cfg.Feeds.Sources))
	for _, src := range cfg.Feeds.Sources {
		sources = append(sources, feeds.Source{URL: src.URL, Name: src.Name})
	}

	fetcher := feeds.NewFetcher(feeds.Options{
		UserAgent:   cfg.Feeds.UserAgent,
		Timeout:     config.ParseDuration(cfg.Feeds.Timeout, 15*time.Second),
		Stagger:     config.ParseDuration(cfg.Feeds.Stagger, 500*time.Millisecond),
		Concurrency: cfg.Feeds.Concurrency,
		ProxyURLs:   cfg.Feeds.ProxyURLs,
	})

	var prober links.Prober
	if probe || cfg.Links.Probe {
		prober = links.NewHeadProber(config.ParseDuration(cfg.Links.ProbeTimeout, 5*time.Second))
	}
	resolver := links.NewResolver(prober)

	scorer := scoring.NewDefaultScorer()

	remote := summarize.NewHTTPRemote(
		cfg.Summarizer.Endpoints,
		config.ParseDuration(cfg.Summarizer.Timeout, 10*time.Second),
		cfg.Summarizer.AuthToken,
	)
	options := summarize.DefaultOptions()
	options.MaxLength = cfg.Summarizer.MaxLength
	options.MinInput = cfg.Summarizer.MinInput
	baseSummarizer := summarize.NewSummarizer(nilIfEmpty(remote), options)

	var summarizer pipeline.TextSummarizer = baseSummarizer
	summaryStore, err := store.NewStore(cfg.Cache.Directory)
	if err != nil {
		logger.Warn("Summary cache unavailable, running uncached", "error", err.Error())
	} else {
		defer func() { _ = summaryStore.Close() }()
		ttl := config.ParseDuration(cfg.Cache.SummaryTTL, 168*time.Hour)
		summarizer = summarize.NewCachedSummarizer(baseSummarizer, summaryStore, ttl)
	}

	pipelineOptions := pipeline.Options{
		WindowDays: cfg.Pipeline.WindowDays,
		TopK:       cfg.Pipeline.TopK,
		MinThreats: cfg.Pipeline.MinThreats,
	}
	if topK > 0 {
		pipelineOptions.TopK = topK
	}
	run := pipeline.New(fetcher, scorer, resolver, summarizer, pipelineOptions)

	cachePath := filepath.Join(cfg.Cache.Directory, cfg.Cache.ThreatFile)
	var cached []core.Threat
	if !noCache {
		cached = store.LoadThreatCache(cachePath).Articles
	}

	threats, stats := run.Run(ctx, sources, cached)

	if !noCache {
		cache := store.ThreatCache{Articles: threats}
		cache.Prune(now, time.Duration(pipelineOptions.WindowDays)*24*time.Hour)
		if err := store.SaveThreatCache(cachePath, cache); err != nil {
			logger.Warn("Failed to save threat cache", "error", err.Error())
		}
	}

	generator := content.NewGenerator()
	newsletter := core.Newsletter{
		Threats:         threats,
		BestPractices:   generator.BestPractices(threats),
		TrainingItems:   generator.TrainingItems(threats),
		ThoughtOfTheDay: generator.ThoughtOfTheDay(now),
		SecurityJoke:    generator.SecurityJoke(now),
		LastUpdated:     now,
		GenerationStats: stats,
	}

	markdownPath, err := render.RenderMarkdown(newsletter, cfg.Output.Directory)
	if err != nil {
		return fmt.Errorf("failed to render newsletter: %w", err)
	}
	jsonPath, err := render.WriteJSON(newsletter, cfg.Output.Directory)
	if err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	fmt.Printf("Newsletter written to %s\n", markdownPath)
	fmt.Printf("Payload written to %s\n", jsonPath)
	fmt.Printf("Threats: %d (from %d articles, %d sources)\n",
		stats.ThreatsGenerated, stats.ArticlesScanned, stats.SourcesUsed)
	return nil
}

// nilIfEmpty keeps a typed-nil *HTTPRemote from masquerading as a non-nil
// RemoteClient interface value.
func nilIfEmpty(remote *summarize.HTTPRemote) summarize.RemoteClient {
	if remote == nil {
		return nil
	}
	return remote
}
