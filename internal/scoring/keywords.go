package scoring

import "regexp"

// cveRegex matches CVE identifiers like CVE-2024-12345.
var cveRegex = regexp.MustCompile(`(?i)CVE-\d{4}-\d{4,7}`)

// KeywordSet is the single keyword configuration consumed by both scoring
// and severity classification, so the two can never drift apart.
type KeywordSet struct {
	Critical []string // presence adds 20 points each and forces CRITICAL
	High     []string // presence adds 10 points each
	Medium   []string // presence adds 5 points each
	Topical  []string // relevance gate: at least one must appear
	Credible []string // source-name substrings worth a credibility bonus
}

// DefaultKeywordSet returns the built-in cybersecurity keyword configuration.
func DefaultKeywordSet() KeywordSet {
	return KeywordSet{
		Critical: []string{
			"zero-day",
			"zero day",
			"remote code execution",
			"actively exploited",
			"ransomware",
			"nation-state",
			"supply chain attack",
			"critical vulnerability",
			"wormable",
		},
		High: []string{
			"vulnerability",
			"exploit",
			"breach",
			"malware",
			"backdoor",
			"data leak",
			"botnet",
			"privilege escalation",
		},
		Medium: []string{
			"phishing",
			"patch",
			"misconfiguration",
			"spyware",
			"scam",
			"credential",
			"ddos",
		},
		Topical: []string{
			"cyber",
			"security",
			"hack",
			"vulnerability",
			"exploit",
			"malware",
			"ransomware",
			"breach",
			"phishing",
			"cve",
			"attack",
			"threat",
			"infosec",
		},
		Credible: []string{
			"hacker news",
			"bleepingcomputer",
			"krebs",
			"cisa",
			"dark reading",
			"securityweek",
			"threatpost",
		},
	}
}
