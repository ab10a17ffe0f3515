// Package analyze derives presentation artifacts (summaries, keywords,
// sentiment scores, topic labels) from record text. Everything here is a
// pure function of its input: no store access, no network, and failures
// degrade to empty or neutral defaults instead of propagating.
package analyze

import (
	"regexp"
	"sort"
	"strings"
)

var (
	wordRe       = regexp.MustCompile(`[A-Za-z']+`)
	sentenceRe   = regexp.MustCompile(`[.!?]+[\s$]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Summary is the derived text payload for one record.
type Summary struct {
	Summary  string
	Keywords []string
}

type scoredSentence struct {
	text     string
	position int
	score    float64
}

// Summarize produces an extractive summary of at most maxSentences
// sentences plus the top maxKeywords keywords. Sentences are scored by
// word frequency (weight 0.6), position (0.3) and length (0.1), then
// re-ordered by their original position. Empty input yields an empty
// Summary.
func Summarize(text string, maxSentences, maxKeywords int) Summary {
	text = cleanText(text)
	if text == "" {
		return Summary{}
	}

	sentences := splitSentences(text)
	words := extractWords(text)
	freq := countWords(words)

	scored := make([]scoredSentence, 0, len(sentences))
	for i, sentence := range sentences {
		sentWords := extractWords(sentence)
		if len(sentWords) == 0 {
			continue
		}

		var freqScore float64
		for _, w := range sentWords {
			freqScore += float64(freq[w])
		}
		freqScore /= float64(len(sentWords))

		positionScore := 1.0 / float64(i+1)

		lengthScore := 0.5
		if n := len(sentWords); n >= 10 && n <= 30 {
			lengthScore = 1.0
		}

		scored = append(scored, scoredSentence{
			text:     sentence,
			position: i,
			score:    freqScore*0.6 + positionScore*0.3 + lengthScore*0.1,
		})
	}

	if len(scored) == 0 {
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		return Summary{Summary: text, Keywords: topWords(freq, maxKeywords)}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > maxSentences {
		scored = scored[:maxSentences]
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].position < scored[j].position })

	parts := make([]string, len(scored))
	for i, s := range scored {
		parts[i] = s.text
	}

	return Summary{
		Summary:  strings.Join(parts, " "),
		Keywords: topWords(freq, maxKeywords),
	}
}

// Topics returns the most frequent meaningful terms across the given
// texts, best first, at most n long. Empty input yields nil.
func Topics(texts []string, n int) []string {
	freq := make(map[string]int)
	for _, t := range texts {
		for _, w := range extractWords(cleanText(t)) {
			freq[w]++
		}
	}
	return topWords(freq, n)
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text+" ", -1) {
		s := strings.TrimSpace(text[last:min(loc[1], len(text))])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if last < len(text) {
		if s := strings.TrimSpace(text[last:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// extractWords lowercases and keeps words longer than two characters
// that are not stopwords.
func extractWords(text string) []string {
	raw := wordRe.FindAllString(strings.ToLower(text), -1)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		if len(w) > 2 && !isStopword(w) {
			words = append(words, w)
		}
	}
	return words
}

func countWords(words []string) map[string]int {
	freq := make(map[string]int, len(words))
	for _, w := range words {
		freq[w]++
	}
	return freq
}

// topWords returns the n most frequent words, ties broken
// alphabetically so output is deterministic.
func topWords(freq map[string]int, n int) []string {
	if n <= 0 || len(freq) == 0 {
		return nil
	}
	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
