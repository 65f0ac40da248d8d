// Package links validates article link candidates and synthesizes fallback
// search URLs when none validate.
package links

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"threatbrief/internal/core"
)

// trackingPrefixes are query-parameter prefixes stripped from validated URLs.
var trackingPrefixes = []string{
	"utm_", "fbclid", "gclid", "_ga", "ref", "source", "medium", "campaign", "mc_",
}

// publisherSearch maps a source-name substring to its search URL template.
type publisherSearch struct {
	match    string
	template string // %s receives the query-escaped title
}

var publisherSearches = []publisherSearch{
	{"hacker news", "https://thehackernews.com/search?q=%s"},
	{"bleepingcomputer", "https://www.bleepingcomputer.com/search/?q=%s"},
	{"krebs", "https://krebsonsecurity.com/?s=%s"},
	{"dark reading", "https://www.darkreading.com/search?q=%s"},
	{"securityweek", "https://www.securityweek.com/?s=%s"},
	{"cisa", "https://www.cisa.gov/search?g=%s"},
	{"threatpost", "https://threatpost.com/?s=%s"},
}

// Prober checks whether a URL is reachable. Implementations doing live
// network I/O are injected so tests and non-interactive runs stay offline.
type Prober interface {
	Probe(ctx context.Context, rawURL string) bool
}

// HeadProber probes reachability with a HEAD request. HTTP 2xx and 405
// count as accessible; anything else, including timeouts, does not.
type HeadProber struct {
	client *http.Client
}

// NewHeadProber creates a prober with the given per-request timeout.
func NewHeadProber(timeout time.Duration) *HeadProber {
	return &HeadProber{client: &http.Client{Timeout: timeout}}
}

// Probe performs the HEAD request against rawURL.
func (p *HeadProber) Probe(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return (resp.StatusCode >= 200 && resp.StatusCode < 300) || resp.StatusCode == http.StatusMethodNotAllowed
}

// Resolver validates link candidates in order and falls back to search-URL
// synthesis when every candidate is rejected.
type Resolver struct {
	prober Prober // nil disables probing
}

// NewResolver creates a resolver. Pass a nil prober to skip reachability
// probing, which is the default in non-interactive contexts.
func NewResolver(prober Prober) *Resolver {
	return &Resolver{prober: prober}
}

// Resolve returns the first candidate that validates (and passes the probe,
// when enabled), or a synthesized fallback URL. The returned URL is never
// empty: absence of any link is treated as a defect, not a valid state.
func (r *Resolver) Resolve(ctx context.Context, candidates []string, feedURL, sourceName, title string) (string, core.LinkKind) {
	for _, candidate := range candidates {
		cleaned, err := CleanURL(candidate, feedURL)
		if err != nil {
			continue
		}
		if r.prober != nil && !r.prober.Probe(ctx, cleaned) {
			continue
		}
		return cleaned, core.LinkDirect
	}
	return FallbackURL(sourceName, title), core.LinkFallback
}

// CleanURL validates and normalizes a single candidate URL. Relative
// candidates are resolved against the feed's origin; schemeless candidates
// get https prepended; known tracking parameters are stripped.
func CleanURL(candidate, feedURL string) (string, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", fmt.Errorf("empty candidate")
	}

	if strings.HasPrefix(candidate, "/") {
		origin, err := feedOrigin(feedURL)
		if err != nil {
			return "", fmt.Errorf("cannot resolve relative link: %w", err)
		}
		candidate = origin + candidate
	} else if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", candidate, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host", candidate)
	}

	query := parsed.Query()
	for param := range query {
		if isTrackingParam(param) {
			query.Del(param)
		}
	}
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

// FallbackURL synthesizes a search URL for an item whose links all failed
// validation. Known publishers get their own search page; everything else
// gets a generic web search.
func FallbackURL(sourceName, title string) string {
	query := url.QueryEscape(strings.TrimSpace(title))

	source := strings.ToLower(sourceName)
	for _, pub := range publisherSearches {
		if strings.Contains(source, pub.match) {
			return fmt.Sprintf(pub.template, query)
		}
	}

	search := titlePrefix(title, 8) + " cybersecurity vulnerability"
	return "https://duckduckgo.com/?q=" + url.QueryEscape(search)
}

// titlePrefix returns the first maxWords words of title.
func titlePrefix(title string, maxWords int) string {
	words := strings.Fields(title)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

func isTrackingParam(param string) bool {
	lower := strings.ToLower(param)
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// feedOrigin extracts scheme://host from a feed URL.
func feedOrigin(feedURL string) (string, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("feed URL %q has no origin", feedURL)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
