package pipeline

import (
	"context"
	"testing"
	"time"

	"threatbrief/internal/core"
	"threatbrief/internal/feeds"
	"threatbrief/internal/links"
	"threatbrief/internal/scoring"
	"threatbrief/internal/summarize"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeFetcher returns a fixed article set without touching the network.
type fakeFetcher struct {
	articles []core.Article
	stats    feeds.FetchStats
}

func (f *fakeFetcher) FetchAll(ctx context.Context, sources []feeds.Source) ([]core.Article, feeds.FetchStats) {
	return f.articles, f.stats
}

func newTestPipeline(fetcher FeedFetcher, options Options) *Pipeline {
	options.Now = func() time.Time { return testNow }
	return New(fetcher,
		scoring.NewDefaultScorer(),
		links.NewResolver(nil),
		summarize.NewSummarizer(nil, summarize.DefaultOptions()),
		options)
}

func article(title, link string, publishedAt time.Time) core.Article {
	return core.Article{
		Title:       title,
		Description: "Security advisory with relevant details.",
		Link:        link,
		PublishedAt: publishedAt,
		SourceName:  "Example Security",
		SourceURL:   "https://example.com/feed",
	}
}

func TestIsRecentBoundaries(t *testing.T) {
	window := 7 * 24 * time.Hour

	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"zero timestamp rejected", time.Time{}, false},
		{"future rejected, not clamped", testNow.Add(time.Minute), false},
		{"exactly now included", testNow, true},
		{"inside window", testNow.Add(-3 * 24 * time.Hour), true},
		{"exactly window edge excluded", testNow.Add(-window), false},
		{"just inside window edge", testNow.Add(-window + time.Second), true},
		{"older than window", testNow.Add(-8 * 24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecent(tt.ts, testNow, window); got != tt.want {
				t.Errorf("IsRecent(%v) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}
}

func TestDedupKeyNormalization(t *testing.T) {
	a := DedupKey("Critical  RCE: Flaw!!", "https://example.com/a")
	b := DedupKey("critical rce flaw", "https://example.com/a")
	if a != b {
		t.Errorf("Expected normalized keys to match: %q vs %q", a, b)
	}

	c := DedupKey("critical rce flaw", "https://example.com/other")
	if a == c {
		t.Error("Expected different links to produce different keys")
	}
}

func TestRunDeduplicates(t *testing.T) {
	fetcher := &fakeFetcher{articles: []core.Article{
		article("Malware campaign spreads", "https://example.com/a", testNow.Add(-time.Hour)),
		article("MALWARE campaign spreads!", "https://example.com/a", testNow.Add(-2*time.Hour)),
	}}
	p := newTestPipeline(fetcher, Options{MinThreats: 0})

	threats, _ := p.Run(context.Background(), nil, nil)
	if len(threats) != 1 {
		t.Fatalf("Expected 1 threat after dedup, got %d", len(threats))
	}
}

func TestRunDedupIsIdempotentWithCache(t *testing.T) {
	fetcher := &fakeFetcher{articles: []core.Article{
		article("Malware campaign spreads", "https://example.com/a", testNow.Add(-time.Hour)),
		article("Ransomware hits hospital", "https://example.com/b", testNow.Add(-2*time.Hour)),
	}}
	p := newTestPipeline(fetcher, Options{MinThreats: 0})

	first, _ := p.Run(context.Background(), nil, nil)

	// Feeding the output back as the cache must not change the set, and
	// the cached instances must win their key collisions.
	second, _ := p.Run(context.Background(), nil, first)
	if len(second) != len(first) {
		t.Fatalf("Dedup not idempotent: %d then %d threats", len(first), len(second))
	}
	for i := range first {
		if second[i].ID != first[i].ID {
			t.Errorf("Cached threat %d was replaced instead of carried forward", i)
		}
	}
}

func TestRunRecencyAndRelevanceFilters(t *testing.T) {
	fetcher := &fakeFetcher{articles: []core.Article{
		article("Fresh exploit disclosed", "https://example.com/fresh", testNow.Add(-time.Hour)),
		article("Stale exploit disclosed", "https://example.com/stale", testNow.Add(-10*24*time.Hour)),
		article("Future exploit disclosed", "https://example.com/future", testNow.Add(24*time.Hour)),
		{
			Title:       "Gardening tips for June",
			Description: "Plant tomatoes now.",
			Link:        "https://example.com/garden",
			PublishedAt: testNow.Add(-time.Hour),
			SourceName:  "Example Security",
			SourceURL:   "https://example.com/feed",
		},
	}}
	p := newTestPipeline(fetcher, Options{MinThreats: 0})

	threats, stats := p.Run(context.Background(), nil, nil)
	if len(threats) != 1 {
		t.Fatalf("Expected only the fresh relevant article to survive, got %d threats", len(threats))
	}
	if threats[0].Title != "Fresh exploit disclosed" {
		t.Errorf("Wrong survivor: %s", threats[0].Title)
	}
	if stats.ArticlesScanned != 4 {
		t.Errorf("ArticlesScanned = %d, want 4", stats.ArticlesScanned)
	}
}

func TestRunScenario(t *testing.T) {
	// A critical+fresh, B benign+fresh, C a duplicate of A but 10 days
	// old. C drops to recency, A and B survive, A first.
	a := article("Critical RCE in WidgetCorp VPN actively exploited", "https://example.com/a", testNow)
	b := article("Minor security bug in WidgetCorp app", "https://example.com/b", testNow)
	c := article("Critical RCE in WidgetCorp VPN actively exploited", "https://example.com/a", testNow.Add(-10*24*time.Hour))

	fetcher := &fakeFetcher{articles: []core.Article{b, c, a}}
	p := newTestPipeline(fetcher, Options{MinThreats: 0})

	threats, _ := p.Run(context.Background(), nil, nil)
	if len(threats) != 2 {
		t.Fatalf("Expected 2 threats, got %d", len(threats))
	}
	if threats[0].Title != a.Title {
		t.Errorf("Expected critical article first, got %q", threats[0].Title)
	}
	if threats[0].ThreatScore < threats[1].ThreatScore+20 {
		t.Errorf("Expected score gap >= 20: %d vs %d", threats[0].ThreatScore, threats[1].ThreatScore)
	}
}

func TestRunSortTieBreakByDate(t *testing.T) {
	// Same keyword profile and recency bucket, so equal scores; the newer
	// article must sort first.
	older := article("Breach at Alpha Corp", "https://example.com/alpha", testNow.Add(-5*time.Hour))
	newer := article("Breach at Beta Corp", "https://example.com/beta", testNow.Add(-2*time.Hour))

	fetcher := &fakeFetcher{articles: []core.Article{older, newer}}
	p := newTestPipeline(fetcher, Options{MinThreats: 0})

	threats, _ := p.Run(context.Background(), nil, nil)
	if len(threats) != 2 {
		t.Fatalf("Expected 2 threats, got %d", len(threats))
	}
	if threats[0].ThreatScore != threats[1].ThreatScore {
		t.Fatalf("Fixture scores diverged: %d vs %d", threats[0].ThreatScore, threats[1].ThreatScore)
	}
	if threats[0].Title != newer.Title {
		t.Errorf("Expected newer article first on score tie, got %q", threats[0].Title)
	}
}

func TestRunTruncatesToTopK(t *testing.T) {
	var articles []core.Article
	for i := 0; i < 10; i++ {
		articles = append(articles, article(
			"Exploit report number "+string(rune('a'+i)),
			"https://example.com/"+string(rune('a'+i)),
			testNow.Add(-time.Duration(i)*time.Hour)))
	}
	fetcher := &fakeFetcher{articles: articles}
	p := newTestPipeline(fetcher, Options{TopK: 3, MinThreats: 0})

	threats, _ := p.Run(context.Background(), nil, nil)
	if len(threats) != 3 {
		t.Errorf("Expected top-3 truncation, got %d threats", len(threats))
	}
}

func TestRunPadsWhenAllFetchesFail(t *testing.T) {
	fetcher := &fakeFetcher{stats: feeds.FetchStats{SourcesFailed: 8}}
	p := newTestPipeline(fetcher, Options{MinThreats: 4})

	threats, stats := p.Run(context.Background(), nil, nil)
	if len(threats) < 4 {
		t.Fatalf("Expected at least 4 threats from fallback padding, got %d", len(threats))
	}
	if stats.ThreatsGenerated != len(threats) {
		t.Errorf("Stats out of sync: %d vs %d", stats.ThreatsGenerated, len(threats))
	}
	for _, threat := range threats {
		if threat.Link == "" {
			t.Errorf("Fallback threat %q has empty link", threat.Title)
		}
		if threat.LinkKind != core.LinkFallback {
			t.Errorf("Fallback threat %q has kind %s", threat.Title, threat.LinkKind)
		}
	}
}

func TestRunLinkInvariant(t *testing.T) {
	fetcher := &fakeFetcher{articles: []core.Article{
		article("Exploit with good link", "https://example.com/good", testNow.Add(-time.Hour)),
		{
			Title:       "Exploit with broken link",
			Description: "Security advisory.",
			Link:        "not a valid url at all",
			PublishedAt: testNow.Add(-time.Hour),
			SourceName:  "Example Security",
			SourceURL:   "https://example.com/feed",
		},
	}}
	p := newTestPipeline(fetcher, Options{MinThreats: 0})

	threats, _ := p.Run(context.Background(), nil, nil)
	for _, threat := range threats {
		if threat.Link == "" {
			t.Errorf("Threat %q violates the non-empty link invariant", threat.Title)
		}
		if threat.LinkKind != core.LinkDirect && threat.LinkKind != core.LinkFallback {
			t.Errorf("Threat %q has invalid link kind %q", threat.Title, threat.LinkKind)
		}
	}
}

func TestRunExtractsCVEs(t *testing.T) {
	fetcher := &fakeFetcher{articles: []core.Article{
		article("Exploit for CVE-2025-12345 released", "https://example.com/cve", testNow.Add(-time.Hour)),
	}}
	p := newTestPipeline(fetcher, Options{MinThreats: 0})

	threats, stats := p.Run(context.Background(), nil, nil)
	if len(threats) != 1 {
		t.Fatalf("Expected 1 threat, got %d", len(threats))
	}
	if len(threats[0].CVEIDs) != 1 || threats[0].CVEIDs[0] != "CVE-2025-12345" {
		t.Errorf("CVEIDs = %v, want [CVE-2025-12345]", threats[0].CVEIDs)
	}
	if stats.CVECount != 1 {
		t.Errorf("Stats CVECount = %d, want 1", stats.CVECount)
	}
}
