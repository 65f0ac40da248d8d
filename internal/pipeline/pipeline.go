// Package pipeline orchestrates one ingestion run: fetch, filter, dedup,
// score, sort, truncate, and resolve into a displayable threat set.
package pipeline

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"threatbrief/internal/core"
	"threatbrief/internal/feeds"
	"threatbrief/internal/logger"
	"threatbrief/internal/scoring"
)

var nonWordRegex = regexp.MustCompile(`[^\w\s]`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Options configures a pipeline run.
type Options struct {
	WindowDays int              // recency window, default 7
	TopK       int              // cutoff after sorting, default 50
	MinThreats int              // padding floor, default 4
	Now        func() time.Time // injectable clock; nil means time.Now
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		WindowDays: 7,
		TopK:       50,
		MinThreats: 4,
	}
}

// FeedFetcher produces articles from the source registry. Failures are
// absorbed per source and reported only through FetchStats.
type FeedFetcher interface {
	FetchAll(ctx context.Context, sources []feeds.Source) ([]core.Article, feeds.FetchStats)
}

// LinkResolver resolves an item's link candidates into a guaranteed
// non-empty URL.
type LinkResolver interface {
	Resolve(ctx context.Context, candidates []string, feedURL, sourceName, title string) (string, core.LinkKind)
}

// TextSummarizer bounds a description's length. It never fails.
type TextSummarizer interface {
	Summarize(ctx context.Context, text string) string
}

// Pipeline runs the ingestion state machine. One run either completes with
// whatever subset of sources succeeded or is abandoned wholesale by the
// caller; there is no mid-run resume.
type Pipeline struct {
	fetcher    FeedFetcher
	scorer     *scoring.Scorer
	resolver   LinkResolver
	summarizer TextSummarizer
	options    Options
}

// New creates a pipeline. Zero-valued option fields fall back to defaults.
func New(fetcher FeedFetcher, scorer *scoring.Scorer, resolver LinkResolver, summarizer TextSummarizer, options Options) *Pipeline {
	defaults := DefaultOptions()
	if options.WindowDays <= 0 {
		options.WindowDays = defaults.WindowDays
	}
	if options.TopK <= 0 {
		options.TopK = defaults.TopK
	}
	if options.MinThreats < 0 {
		options.MinThreats = defaults.MinThreats
	}
	return &Pipeline{
		fetcher:    fetcher,
		scorer:     scorer,
		resolver:   resolver,
		summarizer: summarizer,
		options:    options,
	}
}

// candidate is one item competing for a top-K slot: either a carried-over
// cached threat (keeping its score snapshot) or a freshly scored article.
type candidate struct {
	cached    bool
	threat    core.Threat  // set when cached
	article   core.Article // set when fresh
	score     int
	published time.Time
	title     string
}

// Run executes one pipeline run. cached is the previous run's threat set
// (may be empty); dedup runs over [cached..fresh] in that order, so a
// cached instance wins a key collision and keeps its snapshot. Run never
// returns an error: a run with zero successful fetches still completes
// and yields the canned fallback set.
func (p *Pipeline) Run(ctx context.Context, sources []feeds.Source, cached []core.Threat) ([]core.Threat, core.PipelineRunStats) {
	now := p.now()
	window := time.Duration(p.options.WindowDays) * 24 * time.Hour

	articles, fetchStats := p.fetcher.FetchAll(ctx, sources)

	seen := make(map[string]bool)
	var candidates []candidate

	// Cached threats enter first so first-seen-wins prefers them.
	for _, threat := range cached {
		if !IsRecent(threat.PublishedAt, now, window) {
			continue
		}
		key := DedupKey(threat.Title, threat.Link)
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, candidate{
			cached:    true,
			threat:    threat,
			score:     threat.ThreatScore,
			published: threat.PublishedAt,
			title:     threat.Title,
		})
	}

	for _, article := range articles {
		if !IsRecent(article.PublishedAt, now, window) {
			continue
		}
		if !p.scorer.IsRelevant(article) {
			continue
		}
		key := DedupKey(article.Title, article.Link)
		if seen[key] {
			continue
		}
		seen[key] = true
		score := p.scorer.Score(article, now)
		candidates = append(candidates, candidate{
			article:   article,
			score:     score,
			published: article.PublishedAt,
			title:     article.Title,
		})
	}

	// Score desc, then newer first, then title for a deterministic order.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if !candidates[i].published.Equal(candidates[j].published) {
			return candidates[i].published.After(candidates[j].published)
		}
		return candidates[i].title < candidates[j].title
	})

	if len(candidates) > p.options.TopK {
		candidates = candidates[:p.options.TopK]
	}

	threats := make([]core.Threat, 0, len(candidates))
	for _, c := range candidates {
		if c.cached {
			threats = append(threats, c.threat)
			continue
		}
		threats = append(threats, p.buildThreat(ctx, c.article, c.score, now))
	}

	if len(threats) < p.options.MinThreats {
		logger.Warn("Pipeline starved, padding with fallback threats",
			"have", len(threats), "minimum", p.options.MinThreats)
		threats = padWithFallback(threats, p.options.MinThreats, now)
	}

	stats := buildStats(threats, len(articles), fetchStats, now)
	logger.Info("Pipeline run completed",
		"articles", stats.ArticlesScanned,
		"threats", stats.ThreatsGenerated,
		"sources_used", stats.SourcesUsed,
		"cves", stats.CVECount,
	)
	return threats, stats
}

// buildThreat finishes a fresh survivor: link resolution, summarization,
// CVE extraction, severity classification.
func (p *Pipeline) buildThreat(ctx context.Context, article core.Article, score int, now time.Time) core.Threat {
	link, kind := p.resolver.Resolve(ctx,
		[]string{article.Link, article.GUID},
		article.SourceURL, article.SourceName, article.Title)

	text := article.Description
	if len(article.RawContent) > len(text) {
		text = article.RawContent
	}
	description := p.summarizer.Summarize(ctx, text)

	severity := p.scorer.Classify(article, score)

	return core.Threat{
		ID:          uuid.NewString(),
		Title:       article.Title,
		Description: description,
		Severity:    severity,
		Source:      article.SourceName,
		PublishedAt: article.PublishedAt,
		CVEIDs:      scoring.ExtractCVEs(article.Title + " " + article.Description),
		Link:        link,
		LinkKind:    kind,
		ThreatScore: score,
	}
}

func (p *Pipeline) now() time.Time {
	if p.options.Now != nil {
		return p.options.Now()
	}
	return time.Now().UTC()
}

// IsRecent reports whether t falls inside the trailing window: the lower
// bound now-window is exclusive, the upper bound now is inclusive. Zero
// (unparseable) and future timestamps are rejected, never clamped.
func IsRecent(t, now time.Time, window time.Duration) bool {
	if t.IsZero() {
		return false
	}
	if t.After(now) {
		return false
	}
	return t.After(now.Add(-window))
}

// DedupKey builds the dedup key: normalized title joined to the link.
// Normalization lowercases, strips non-word/non-space characters, collapses
// whitespace, and trims.
func DedupKey(title, link string) string {
	normalized := strings.ToLower(title)
	normalized = nonWordRegex.ReplaceAllString(normalized, "")
	normalized = whitespaceRegex.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)
	return normalized + "_" + link
}

// buildStats computes the observational counters for one run.
func buildStats(threats []core.Threat, articlesScanned int, fetchStats feeds.FetchStats, now time.Time) core.PipelineRunStats {
	stats := core.PipelineRunStats{
		ArticlesScanned:  articlesScanned,
		ThreatsGenerated: len(threats),
		SourcesUsed:      fetchStats.SourcesUsed,
		SourcesFailed:    fetchStats.SourcesFailed,
		SeverityCounts:   make(map[core.Severity]int),
	}

	cves := make(map[string]bool)
	var newest, oldest time.Time
	for _, threat := range threats {
		stats.SeverityCounts[threat.Severity]++
		for _, id := range threat.CVEIDs {
			cves[id] = true
		}
		if threat.PublishedAt.IsZero() {
			continue
		}
		if newest.IsZero() || threat.PublishedAt.After(newest) {
			newest = threat.PublishedAt
		}
		if oldest.IsZero() || threat.PublishedAt.Before(oldest) {
			oldest = threat.PublishedAt
		}
	}
	stats.CVECount = len(cves)
	if !newest.IsZero() {
		stats.NewestAge = core.Threat{PublishedAt: newest}.FormattedAge(now)
		stats.OldestAge = core.Threat{PublishedAt: oldest}.FormattedAge(now)
	}
	return stats
}
