// Package render writes the newsletter payload as markdown and JSON.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"threatbrief/internal/core"
)

// RenderMarkdown creates the newsletter markdown file in outputDir and
// returns its path.
func RenderMarkdown(newsletter core.Newsletter, outputDir string) (string, error) {
	dateStr := newsletter.LastUpdated.UTC().Format("2006-01-02")
	filename := fmt.Sprintf("newsletter_%s.md", dateStr)

	if outputDir == "" {
		outputDir = "newsletters"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	filePath := filepath.Join(outputDir, filename)

	content := buildMarkdown(newsletter)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write newsletter file %s: %w", filePath, err)
	}
	return filePath, nil
}

// WriteJSON writes the payload consumed by the presentation layer and
// returns its path.
func WriteJSON(newsletter core.Newsletter, outputDir string) (string, error) {
	dateStr := newsletter.LastUpdated.UTC().Format("2006-01-02")
	filename := fmt.Sprintf("newsletter_%s.json", dateStr)

	if outputDir == "" {
		outputDir = "newsletters"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	filePath := filepath.Join(outputDir, filename)

	data, err := json.MarshalIndent(newsletter, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode newsletter payload: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write payload file %s: %w", filePath, err)
	}
	return filePath, nil
}

func buildMarkdown(newsletter core.Newsletter) string {
	now := newsletter.LastUpdated
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Cybersecurity Brief - %s\n\n", now.UTC().Format("January 2, 2006")))

	b.WriteString("## Top Threats\n\n")
	if len(newsletter.Threats) == 0 {
		b.WriteString("No threats to report this week.\n\n")
	}
	for i, threat := range newsletter.Threats {
		b.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, threat.Title))
		b.WriteString(fmt.Sprintf("**Severity:** %s | **Source:** %s | **Published:** %s\n\n",
			threat.Severity, threat.Source, threat.FormattedAge(now)))
		if len(threat.CVEIDs) > 0 {
			b.WriteString(fmt.Sprintf("**CVEs:** %s\n\n", strings.Join(threat.CVEIDs, ", ")))
		}
		b.WriteString(threat.Description + "\n\n")
		b.WriteString(fmt.Sprintf("[Read more](%s)\n\n", threat.Link))
	}

	b.WriteString("## Best Practices\n\n")
	for _, practice := range newsletter.BestPractices {
		b.WriteString("- " + practice.Content + "\n")
	}
	b.WriteString("\n## Training\n\n")
	for _, item := range newsletter.TrainingItems {
		b.WriteString("- " + item.Content + "\n")
	}

	b.WriteString("\n## Thought of the Day\n\n")
	b.WriteString("> " + newsletter.ThoughtOfTheDay + "\n\n")
	b.WriteString("## Security Humor\n\n")
	b.WriteString(newsletter.SecurityJoke + "\n\n")

	stats := newsletter.GenerationStats
	b.WriteString("---\n\n")
	b.WriteString(fmt.Sprintf("*Scanned %d articles from %d sources; %d threats, %d CVEs. Generated %s.*\n",
		stats.ArticlesScanned, stats.SourcesUsed, stats.ThreatsGenerated, stats.CVECount,
		now.UTC().Format(time.RFC1123)))

	return b.String()
}
