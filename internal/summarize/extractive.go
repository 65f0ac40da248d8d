package summarize

import (
	"regexp"
	"sort"
	"strings"
)

var sentenceRegex = regexp.MustCompile(`[^.!?]+[.!?]?`)

// shortSentenceLimit is the length under which a sentence earns a bonus
// point; short sentences tend to carry the headline fact.
const shortSentenceLimit = 100

type scoredSentence struct {
	text  string
	score int
	index int // original position, used as the deterministic tie-break
}

// ExtractiveSummary builds a summary by scoring sentences on domain
// keyword density plus a short-sentence bonus, then greedily concatenating
// the best ones until the length budget is spent.
func ExtractiveSummary(text string, maxLength int, keywords []string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxLength {
		return text + "..."
	}

	var sentences []scoredSentence
	for i, raw := range sentenceRegex.FindAllString(text, -1) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}
		sentences = append(sentences, scoredSentence{
			text:  sentence,
			score: scoreSentence(sentence, keywords),
			index: i,
		})
	}
	if len(sentences) == 0 {
		return truncate(text, maxLength)
	}

	sort.SliceStable(sentences, func(i, j int) bool {
		if sentences[i].score != sentences[j].score {
			return sentences[i].score > sentences[j].score
		}
		return sentences[i].index < sentences[j].index
	})

	var builder strings.Builder
	for _, sentence := range sentences {
		if builder.Len() > 0 && builder.Len()+len(sentence.text)+1 > maxLength {
			break
		}
		if builder.Len() == 0 && len(sentence.text) > maxLength {
			return truncate(sentence.text, maxLength)
		}
		if builder.Len() > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(sentence.text)
	}

	return builder.String() + "..."
}

// scoreSentence counts keyword hits and adds the short-sentence bonus.
func scoreSentence(sentence string, keywords []string) int {
	lower := strings.ToLower(sentence)
	score := 0
	for _, kw := range keywords {
		score += strings.Count(lower, strings.ToLower(kw))
	}
	if len(sentence) < shortSentenceLimit {
		score++
	}
	return score
}
