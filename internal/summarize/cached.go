package summarize

import (
	"context"
	"time"

	"threatbrief/internal/logger"
)

// SummaryCache persists summaries keyed by source content, so repeated
// runs over the same articles skip the remote endpoint.
type SummaryCache interface {
	GetCachedSummary(content string, maxAge time.Duration) (string, error)
	CacheSummary(content, summary string) error
}

// CachedSummarizer wraps a Summarizer with a persistent cache.
type CachedSummarizer struct {
	inner *Summarizer
	cache SummaryCache
	ttl   time.Duration
}

// NewCachedSummarizer wraps inner with cache. A nil cache is a no-op wrap.
func NewCachedSummarizer(inner *Summarizer, cache SummaryCache, ttl time.Duration) *CachedSummarizer {
	return &CachedSummarizer{inner: inner, cache: cache, ttl: ttl}
}

// Summarize returns a cached summary when one exists, delegating to the
// wrapped summarizer otherwise. Cache failures degrade to uncached calls.
func (c *CachedSummarizer) Summarize(ctx context.Context, text string) string {
	if c.cache != nil {
		if summary, err := c.cache.GetCachedSummary(text, c.ttl); err == nil && summary != "" {
			return summary
		}
	}
	summary := c.inner.Summarize(ctx, text)
	if c.cache != nil && summary != "" {
		if err := c.cache.CacheSummary(text, summary); err != nil {
			logger.Debug("Failed to cache summary", "error", err.Error())
		}
	}
	return summary
}
