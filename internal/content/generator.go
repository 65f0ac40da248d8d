// Package content derives newsletter side content from the current threat
// set: best practices, training recommendations, and rotating flavor text.
package content

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"threatbrief/internal/core"
)

// Output counts are independent, fixed constants.
const (
	bestPracticeCount = 3
	trainingItemCount = 2
)

// rule pairs a keyword-cluster predicate with its recommendation. Rules
// are evaluated in table order against the whole threat set's text.
type rule struct {
	keywords []string // any match triggers the rule
	text     string
}

var bestPracticeRules = []rule{
	{[]string{"ransomware", "backup"}, "Maintain offline, tested backups of critical systems; ransomware recovery depends on restore speed, not ransom payment."},
	{[]string{"phishing", "credential", "social engineering"}, "Enforce phishing-resistant MFA and report-suspicious-email buttons; most credential theft starts in the inbox."},
	{[]string{"patch", "vulnerability", "cve"}, "Prioritize patching for actively exploited CVEs within 48 hours; use your asset inventory to find exposed instances first."},
	{[]string{"zero-day", "actively exploited"}, "Apply vendor mitigations for zero-days immediately, even before a patch ships; compensating controls beat waiting."},
	{[]string{"supply chain", "third-party", "dependency"}, "Inventory third-party software and pin dependency versions; review vendor advisories as part of change management."},
	{[]string{"misconfiguration", "cloud", "exposed"}, "Run scheduled configuration scans on cloud assets; public buckets and open management ports are still the cheapest way in."},
	{[]string{"remote code execution", "exploit"}, "Segment networks so a single exploited host cannot reach crown-jewel systems laterally."},
}

var defaultBestPractices = []string{
	"Keep all software and firmware updated on a defined patch cadence.",
	"Use a password manager and unique credentials for every service.",
	"Review access rights quarterly and remove unused accounts promptly.",
}

var trainingRules = []rule{
	{[]string{"phishing", "scam"}, "Run a simulated phishing exercise this week and review click-through results with each team."},
	{[]string{"ransomware"}, "Walk through the ransomware incident-response playbook with on-call staff, including the offline-restore drill."},
	{[]string{"credential", "password", "mfa"}, "Schedule a refresher on credential hygiene: password managers, MFA enrollment, and session hijacking signs."},
	{[]string{"cloud", "misconfiguration"}, "Host a hands-on session on secure cloud configuration baselines for the infrastructure team."},
}

var defaultTrainingItems = []string{
	"Complete the quarterly security-awareness module before Friday.",
	"Review the incident-reporting procedure and verify the escalation contacts are current.",
}

var thoughts = []string{
	"Security is a process, not a product.",
	"The best time to patch was yesterday. The second best time is now.",
	"Trust, but verify. Then verify again.",
	"Your security is only as strong as your most tired employee's judgment.",
	"Backups you have never restored are hopes, not backups.",
	"Attackers only need to be right once. Defenders need to be right every time.",
	"Convenience is the natural enemy of security.",
}

var jokes = []string{
	"Why did the hacker break up with the internet? Too many trust issues.",
	"I changed my password to 'incorrect', so my computer reminds me when I forget it.",
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"A SQL query walks into a bar, goes up to two tables and asks: may I join you?",
	"There are two types of companies: those that have been hacked, and those that don't know it yet.",
}

// Generator derives contextual content from a threat set. It is a pure
// function of the threats and the clock.
type Generator struct{}

// NewGenerator creates a content generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// BestPractices returns recommendations matched to the current threat set,
// topped up from the defaults, truncated to the fixed output count.
func (g *Generator) BestPractices(threats []core.Threat) []core.BestPractice {
	texts := matchRules(bestPracticeRules, threatText(threats), defaultBestPractices, bestPracticeCount)
	practices := make([]core.BestPractice, 0, len(texts))
	for _, text := range texts {
		practices = append(practices, core.BestPractice{ID: uuid.NewString(), Content: text})
	}
	return practices
}

// TrainingItems returns training recommendations for the current threat set.
func (g *Generator) TrainingItems(threats []core.Threat) []core.TrainingItem {
	texts := matchRules(trainingRules, threatText(threats), defaultTrainingItems, trainingItemCount)
	items := make([]core.TrainingItem, 0, len(texts))
	for _, text := range texts {
		items = append(items, core.TrainingItem{ID: uuid.NewString(), Content: text})
	}
	return items
}

// ThoughtOfTheDay rotates daily: UTC calendar days since the Unix epoch,
// modulo the table length. Deterministic for a given date in any timezone.
func (g *Generator) ThoughtOfTheDay(now time.Time) string {
	days := int(now.UTC().Unix() / (24 * 60 * 60))
	return thoughts[days%len(thoughts)]
}

// SecurityJoke rotates weekly by ISO week number.
func (g *Generator) SecurityJoke(now time.Time) string {
	_, week := now.UTC().ISOWeek()
	return jokes[week%len(jokes)]
}

// threatText lowercases and concatenates all threat titles and descriptions.
func threatText(threats []core.Threat) string {
	var builder strings.Builder
	for _, threat := range threats {
		builder.WriteString(threat.Title)
		builder.WriteString(" ")
		builder.WriteString(threat.Description)
		builder.WriteString(" ")
	}
	return strings.ToLower(builder.String())
}

// matchRules collects rule texts in table order, appends defaults, and
// truncates to count.
func matchRules(rules []rule, text string, defaults []string, count int) []string {
	var texts []string
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				texts = append(texts, r.text)
				break
			}
		}
	}
	texts = append(texts, defaults...)
	if len(texts) > count {
		texts = texts[:count]
	}
	return texts
}
