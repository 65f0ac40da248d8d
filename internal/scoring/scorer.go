// Package scoring implements the deterministic threat scoring heuristic and
// its matching severity classification.
package scoring

import (
	"sort"
	"strings"
	"time"

	"threatbrief/internal/core"
)

// Point weights and thresholds for the scoring heuristic.
const (
	cvePoints      = 15
	criticalPoints = 20
	highPoints     = 10
	mediumPoints   = 5
	crediblePoints = 8

	criticalThreshold = 50
	highThreshold     = 30
	mediumThreshold   = 15
)

// Scorer computes threat scores and severity tiers from one KeywordSet.
type Scorer struct {
	keywords KeywordSet
}

// NewScorer creates a scorer over the given keyword configuration.
func NewScorer(keywords KeywordSet) *Scorer {
	return &Scorer{keywords: keywords}
}

// NewDefaultScorer creates a scorer with the built-in keyword configuration.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultKeywordSet())
}

// Score computes the integer threat score for an article. It is a pure
// function of (title, description, source, publishedAt, now).
func (s *Scorer) Score(article core.Article, now time.Time) int {
	text := strings.ToLower(article.Title + " " + article.Description)

	score := cvePoints * len(cveRegex.FindAllString(text, -1))

	// Keyword weights are presence tests, not occurrence counts.
	for _, kw := range s.keywords.Critical {
		if strings.Contains(text, kw) {
			score += criticalPoints
		}
	}
	for _, kw := range s.keywords.High {
		if strings.Contains(text, kw) {
			score += highPoints
		}
	}
	for _, kw := range s.keywords.Medium {
		if strings.Contains(text, kw) {
			score += mediumPoints
		}
	}

	score += recencyBonus(article.PublishedAt, now)

	source := strings.ToLower(article.SourceName)
	for _, name := range s.keywords.Credible {
		if strings.Contains(source, name) {
			score += crediblePoints
		}
	}

	return score
}

// Classify maps a score and the article text onto a severity tier. The
// keyword override means a critical keyword forces CRITICAL regardless of
// score, and likewise down the tiers.
func (s *Scorer) Classify(article core.Article, score int) core.Severity {
	text := strings.ToLower(article.Title + " " + article.Description)

	if score > criticalThreshold || containsAny(text, s.keywords.Critical) {
		return core.SeverityCritical
	}
	if score > highThreshold || containsAny(text, s.keywords.High) {
		return core.SeverityHigh
	}
	if score > mediumThreshold || containsAny(text, s.keywords.Medium) {
		return core.SeverityMedium
	}
	return core.SeverityLow
}

// IsRelevant reports whether the article mentions at least one topical term.
func (s *Scorer) IsRelevant(article core.Article) bool {
	text := strings.ToLower(article.Title + " " + article.Description)
	return containsAny(text, s.keywords.Topical)
}

// ExtractCVEs returns the distinct CVE identifiers in the article text,
// uppercased and sorted.
func ExtractCVEs(text string) []string {
	matches := cveRegex.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var ids []string
	for _, m := range matches {
		id := strings.ToUpper(m)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// recencyBonus rewards fresh articles. Zero or future timestamps earn nothing.
func recencyBonus(publishedAt, now time.Time) int {
	if publishedAt.IsZero() || publishedAt.After(now) {
		return 0
	}
	age := now.Sub(publishedAt)
	switch {
	case age < 24*time.Hour:
		return 10
	case age < 48*time.Hour:
		return 7
	case age < 72*time.Hour:
		return 5
	default:
		return 0
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
