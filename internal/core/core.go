// Package core defines the shared data model for the threat pipeline.
package core

import (
	"fmt"
	"time"
)

// Severity is the ordinal threat classification.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// LinkKind reports how a threat's outbound link was obtained.
type LinkKind string

const (
	LinkDirect   LinkKind = "direct"   // A candidate URL from the feed validated.
	LinkFallback LinkKind = "fallback" // No candidate validated; URL was synthesized.
)

// Article is a raw, post-parse feed item. Articles are transient: they are
// produced per fetch and discarded once merged into a pipeline run.
type Article struct {
	Title       string    `json:"title"`        // Item title
	Description string    `json:"description"`  // Item description/summary, HTML stripped
	Link        string    `json:"link"`         // Primary link, possibly empty or relative
	GUID        string    `json:"guid"`         // Feed GUID, used as a link fallback candidate
	PublishedAt time.Time `json:"published_at"` // Publication time; zero when unparseable
	SourceName  string    `json:"source_name"`  // Display name of the originating feed
	SourceURL   string    `json:"source_url"`   // Feed endpoint URL, used for relative link resolution
	RawContent  string    `json:"raw_content"`  // Full content field when the feed provides one
}

// Threat is a processed, scored, linked news item ready for display.
// Invariant: Link is never empty; LinkKind is fallback iff no candidate
// URL from the feed validated.
type Threat struct {
	ID          string    `json:"id"`           // Unique within a batch, not globally stable
	Title       string    `json:"title"`        // Article title
	Description string    `json:"description"`  // Summarized description, bounded length
	Severity    Severity  `json:"severity"`     // Classified severity tier
	Source      string    `json:"source"`       // Source display name
	PublishedAt time.Time `json:"published_at"` // Publication time
	CVEIDs      []string  `json:"cve_ids"`      // Distinct CVE identifiers found in the text
	Link        string    `json:"link"`         // Always non-empty: direct or synthesized
	LinkKind    LinkKind  `json:"link_kind"`    // How Link was obtained
	ThreatScore int       `json:"threat_score"` // Heuristic score, >= 0
}

// FormattedAge returns a human-relative age string computed from now.
// It is recomputed at render time rather than stored so it stays accurate.
func (t Threat) FormattedAge(now time.Time) string {
	if t.PublishedAt.IsZero() {
		return "unknown"
	}
	age := now.Sub(t.PublishedAt)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

// BestPractice is a derived recommendation regenerated whenever the threat
// set changes. No identity stability is guaranteed across regenerations.
type BestPractice struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// TrainingItem is a derived training recommendation, same lifecycle as
// BestPractice.
type TrainingItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// PipelineRunStats holds observational counters attached to one run.
// Nothing downstream depends on these values.
type PipelineRunStats struct {
	ArticlesScanned  int              `json:"articles_scanned"`  // Raw articles merged from all feeds
	ThreatsGenerated int              `json:"threats_generated"` // Threats in the final output
	SourcesUsed      int              `json:"sources_used"`      // Feeds that returned at least one article
	SourcesFailed    int              `json:"sources_failed"`    // Feeds that failed outright
	CVECount         int              `json:"cve_count"`         // Distinct CVE IDs across all threats
	SeverityCounts   map[Severity]int `json:"severity_counts"`   // Threat count per severity tier
	NewestAge        string           `json:"newest_age"`        // Formatted age of the newest threat
	OldestAge        string           `json:"oldest_age"`        // Formatted age of the oldest threat
}

// Newsletter is the output payload handed to the presentation layer. The
// consumer owns its editable copy; edits do not feed back into the pipeline.
type Newsletter struct {
	Threats         []Threat         `json:"threats"`
	BestPractices   []BestPractice   `json:"best_practices"`
	TrainingItems   []TrainingItem   `json:"training_items"`
	ThoughtOfTheDay string           `json:"thought_of_the_day"`
	SecurityJoke    string           `json:"security_joke"`
	LastUpdated     time.Time        `json:"last_updated"`
	GenerationStats PipelineRunStats `json:"generation_stats"`
}
