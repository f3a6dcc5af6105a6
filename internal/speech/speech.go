// Package speech computes delivery metrics from a word-level transcript.
package speech

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var fillerWords = map[string]struct{}{
	"um":    {},
	"uh":    {},
	"er":    {},
	"ah":    {},
	"like":  {},
	"okay":  {},
	"right": {},
	"so":    {},
}

// Metrics summarise how an answer was delivered.
type Metrics struct {
	WordCount       int      `json:"word_count"`
	WPM             int      `json:"wpm"`
	FillerWordCount int      `json:"filler_word_count"`
	FoundFillers    []string `json:"found_fillers"`
}

// WordsPerMinute rounds to the nearest whole word. A non-positive duration
// yields 0.
func WordsPerMinute(wordCount int, durationMs int64) int {
	if durationMs <= 0 || wordCount <= 0 {
		return 0
	}
	seconds := float64(durationMs) / 1000
	return int(math.Round(float64(wordCount) / seconds * 60))
}

// CountFillers reports filler words in spoken order, as they appeared in the
// transcript. "you know" is matched as two adjacent words.
func CountFillers(words []string) (int, []string) {
	fold := cases.Lower(language.Und)
	normalized := make([]string, len(words))
	for i, w := range words {
		normalized[i] = normalize(fold, w)
	}

	found := []string{}
	for i := 0; i < len(words); i++ {
		if _, ok := fillerWords[normalized[i]]; ok {
			found = append(found, words[i])
			continue
		}
		if normalized[i] == "you" && i+1 < len(words) && normalized[i+1] == "know" {
			found = append(found, words[i]+" "+words[i+1])
			i++
		}
	}
	return len(found), found
}

func normalize(fold cases.Caser, word string) string {
	word = strings.NewReplacer(",", "", ".", "").Replace(word)
	return fold.String(strings.TrimSpace(word))
}

// Analyze computes all delivery metrics for the given words spoken over
// durationMs milliseconds.
func Analyze(words []string, durationMs int64) Metrics {
	count, found := CountFillers(words)
	return Metrics{
		WordCount:       len(words),
		WPM:             WordsPerMinute(len(words), durationMs),
		FillerWordCount: count,
		FoundFillers:    found,
	}
}
