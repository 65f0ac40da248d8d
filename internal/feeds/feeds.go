// Package feeds fetches and parses the configured RSS/Atom sources.
package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"threatbrief/internal/core"
	"threatbrief/internal/logger"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Options configures the fetcher.
type Options struct {
	UserAgent   string
	Timeout     time.Duration
	Stagger     time.Duration // delay between feed dispatches
	Concurrency int
	ProxyURLs   []string // proxy prefixes tried, in order, after the direct endpoint
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:   "threatbrief/1.0",
		Timeout:     15 * time.Second,
		Stagger:     500 * time.Millisecond,
		Concurrency: 5,
	}
}

// FetchStats counts per-source outcomes for one FetchAll call.
type FetchStats struct {
	SourcesUsed   int // sources that returned at least one article
	SourcesFailed int // sources where every endpoint alternative failed
}

// Fetcher fetches feeds with per-source failure isolation. A failing
// source is logged and skipped; it never aborts the aggregate fetch.
type Fetcher struct {
	parser  *gofeed.Parser
	client  *http.Client
	options Options
}

// NewFetcher creates a fetcher with the given options.
func NewFetcher(options Options) *Fetcher {
	return &Fetcher{
		parser:  gofeed.NewParser(),
		client:  &http.Client{Timeout: options.Timeout},
		options: options,
	}
}

// NewFetcherWithClient creates a fetcher with an injected HTTP client, used
// by tests to stay network-free.
func NewFetcherWithClient(options Options, client *http.Client) *Fetcher {
	f := NewFetcher(options)
	f.client = client
	return f
}

// FetchAll fetches every source concurrently, staggering dispatches to
// avoid tripping upstream rate limits, and merges the results. Individual
// failures reduce the result set but never produce an error.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]core.Article, FetchStats) {
	concurrency := f.options.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		merged []core.Article
		stats  FetchStats
		mu     sync.Mutex
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for i, source := range sources {
		if i > 0 && f.options.Stagger > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(f.options.Stagger):
			}
		}
		select {
		case <-ctx.Done():
			logger.Warn("Fetch cancelled", "reason", ctx.Err())
			wg.Wait()
			return merged, stats
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(src Source) {
			defer wg.Done()
			defer func() { <-sem }()

			articles, err := f.FetchSource(ctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Feed fetch failed", "source", src.DisplayName(), "error", err.Error())
				stats.SourcesFailed++
				return
			}
			if len(articles) > 0 {
				stats.SourcesUsed++
			}
			merged = append(merged, articles...)
		}(source)
	}

	wg.Wait()
	logger.Info("Fetch completed",
		"sources", len(sources),
		"used", stats.SourcesUsed,
		"failed", stats.SourcesFailed,
		"articles", len(merged),
	)
	return merged, stats
}

// FetchSource fetches one source, trying the direct endpoint and then each
// configured proxy alternative in a fixed order, stopping at the first
// success. Exhausting every alternative is a source-level failure.
func (f *Fetcher) FetchSource(ctx context.Context, source Source) ([]core.Article, error) {
	endpoints := []string{source.URL}
	for _, proxy := range f.options.ProxyURLs {
		endpoints = append(endpoints, proxy+url.QueryEscape(source.URL))
	}

	var lastErr error
	for _, endpoint := range endpoints {
		feed, err := f.fetchEndpoint(ctx, endpoint)
		if err != nil {
			lastErr = err
			continue
		}
		return f.articlesFromFeed(feed, source), nil
	}
	return nil, fmt.Errorf("all %d endpoint(s) exhausted: %w", len(endpoints), lastErr)
}

// fetchEndpoint performs one HTTP fetch and parse attempt.
func (f *Fetcher) fetchEndpoint(ctx context.Context, endpoint string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.options.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	feed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

// articlesFromFeed converts parsed feed items into Articles. Items missing
// a title or every link candidate are dropped.
func (f *Fetcher) articlesFromFeed(feed *gofeed.Feed, source Source) []core.Article {
	var articles []core.Article
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		link, guid := pickLinks(item)
		if link == "" && guid == "" {
			continue
		}

		articles = append(articles, core.Article{
			Title:       title,
			Description: StripHTML(item.Description),
			Link:        link,
			GUID:        guid,
			PublishedAt: pickPublished(item),
			SourceName:  source.DisplayName(),
			SourceURL:   source.URL,
			RawContent:  StripHTML(item.Content),
		})
	}
	return articles
}

// pickLinks returns the primary link and the GUID fallback candidate, in
// the fixed priority order: link, first alternate link, guid.
func pickLinks(item *gofeed.Item) (link, guid string) {
	link = strings.TrimSpace(item.Link)
	if link == "" && len(item.Links) > 0 {
		link = strings.TrimSpace(item.Links[0])
	}
	guid = strings.TrimSpace(item.GUID)
	return link, guid
}

// pickPublished returns the published time, falling back to updated.
// Unparseable dates yield the zero time and are rejected downstream.
func pickPublished(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// StripHTML flattens HTML markup in feed description fields to plain text.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	text := doc.Text()
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
