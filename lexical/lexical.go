// Package lexical provides pure keyword-relevance scoring for chunk text
// against a query. Scoring has no side effects and performs no I/O, so it can
// run synchronously in the query hot path. It is shared by the search and
// rerank packages.
package lexical

import "strings"

// Stop words to filter out when scoring queries
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "how": true, "what": true, "where": true,
	"when": true, "why": true, "which": true,
}

// Scoring component weights. They sum to 1 so the combined score stays in [0,1].
const (
	phraseWeight    = 0.30
	frequencyWeight = 0.40
	overlapWeight   = 0.30
)

// Tokenize splits text into words, lowercases, trims punctuation, and removes
// stop words. If every word is a stop word, the unfiltered lowercased words
// are returned instead so that stop-word-only queries still match something.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))
	unfiltered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}`"))
		if cleaned == "" {
			continue
		}
		unfiltered = append(unfiltered, cleaned)
		if !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	if len(filtered) == 0 {
		return unfiltered
	}
	return filtered
}

// Score computes the keyword relevance of text against query, in [0,1].
//
// The score combines three signals:
//   - exact phrase match: the whole query appears verbatim in the text
//   - term frequency: how often query terms occur relative to text length
//   - word overlap: the fraction of distinct query terms present in the text
//
// Matching is case-insensitive. An empty query scores 0 for every text, as
// does empty text.
func Score(query, text string) float64 {
	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return 0
	}

	textWords := Tokenize(text)
	if len(textWords) == 0 {
		return 0
	}

	var score float64

	// Exact phrase bonus
	phrase := strings.ToLower(strings.TrimSpace(query))
	if phrase != "" && strings.Contains(strings.ToLower(text), phrase) {
		score += phraseWeight
	}

	// Term-frequency: occurrences of query terms relative to text length,
	// scaled so that a text made of nothing but query terms scores 1.
	counts := make(map[string]int, len(textWords))
	for _, word := range textWords {
		counts[word]++
	}

	var occurrences int
	var matched int
	seen := make(map[string]bool, len(queryTerms))
	for _, term := range queryTerms {
		occurrences += counts[term]
		if !seen[term] {
			seen[term] = true
			if counts[term] > 0 {
				matched++
			}
		}
	}

	frequency := float64(occurrences) / float64(len(textWords))
	if frequency > 1 {
		frequency = 1
	}
	score += frequencyWeight * frequency

	// Word-overlap ratio over distinct query terms
	score += overlapWeight * float64(matched) / float64(len(seen))

	if score > 1 {
		score = 1
	}
	return score
}

// ContainsAllWords reports whether every query word (after stop-word
// filtering) appears in the text.
func ContainsAllWords(text, query string) bool {
	queryWords := Tokenize(query)
	if len(queryWords) == 0 {
		return false
	}

	textWords := Tokenize(text)
	textSet := make(map[string]bool, len(textWords))
	for _, word := range textWords {
		textSet[word] = true
	}

	for _, word := range queryWords {
		if !textSet[word] {
			return false
		}
	}
	return true
}
