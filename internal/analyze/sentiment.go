package analyze

import "strings"

// SentimentScore aggregates per-text labels into percentages. The three
// fields sum to 100 for non-empty input and are all zero for empty input.
type SentimentScore struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

var positiveWords = wordSet(`good great excellent amazing awesome love loved best
fantastic wonderful perfect helpful brilliant enjoy enjoyed beautiful nice happy
thanks thank useful clear informative insightful impressive recommend`)

var negativeWords = wordSet(`bad terrible awful horrible worst hate hated boring
useless waste wrong poor disappointing disappointed annoying misleading confusing
broken stupid ugly clickbait scam fake dislike`)

func wordSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// Sentiment classifies each text by lexicon hits and aggregates the
// labels into percentages. Texts with no hits (or a tie) count as
// neutral. An empty slice yields the all-zero score.
func Sentiment(texts []string) SentimentScore {
	if len(texts) == 0 {
		return SentimentScore{}
	}

	var pos, neg, neu int
	for _, text := range texts {
		p, n := 0, 0
		for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
			if _, ok := positiveWords[w]; ok {
				p++
			}
			if _, ok := negativeWords[w]; ok {
				n++
			}
		}
		switch {
		case p > n:
			pos++
		case n > p:
			neg++
		default:
			neu++
		}
	}

	total := float64(len(texts))
	return SentimentScore{
		Positive: float64(pos) / total * 100,
		Negative: float64(neg) / total * 100,
		Neutral:  float64(neu) / total * 100,
	}
}
