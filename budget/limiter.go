// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package budget

import (
	"strings"

	"github.com/poiesic/docquery/core"
)

// Limiter truncates ranked result lists so their aggregate token count
// never exceeds a budget.
type Limiter struct {
	counter Counter
}

// NewLimiter creates a limiter using the given counter.
// A nil counter falls back to the character heuristic.
func NewLimiter(counter Counter) *Limiter {
	if counter == nil {
		counter = HeuristicCounter{}
	}
	return &Limiter{counter: counter}
}

// Limit accepts results greedily in rank order while the running token
// total stays within the budget. Results that would overflow are skipped,
// not split; with PreserveSentences set, an overflowing result may instead
// be cut to the largest sentence-boundary prefix that still fits, marked
// Truncated.
//
// A MaxTokens of zero disables limiting. The returned warning is true when
// the budget was too small to admit any result; that is a valid empty
// response, not an error.
func (l *Limiter) Limit(results []core.RankedResult, budget core.TokenBudget) (limited []core.RankedResult, warning bool) {
	if budget.MaxTokens <= 0 {
		return results, false
	}

	limited = make([]core.RankedResult, 0, len(results))
	remaining := budget.MaxTokens

	for _, result := range results {
		tokens := l.counter.Count(result.Content)
		if tokens <= remaining {
			limited = append(limited, result)
			remaining -= tokens
			continue
		}

		if !budget.PreserveSentences {
			continue
		}

		prefix, prefixTokens, ok := l.fitSentencePrefix(result.Content, remaining)
		if !ok {
			continue
		}
		result.Content = prefix
		result.Truncated = true
		limited = append(limited, result)
		remaining -= prefixTokens
	}

	warning = len(limited) == 0 && len(results) > 0
	return limited, warning
}

// fitSentencePrefix returns the largest prefix of text ending at a sentence
// boundary whose token count fits within remaining.
func (l *Limiter) fitSentencePrefix(text string, remaining int) (string, int, bool) {
	boundaries := sentenceBoundaries(text)
	for i := len(boundaries) - 1; i >= 0; i-- {
		prefix := strings.TrimRight(text[:boundaries[i]], " \t\n")
		if prefix == "" {
			continue
		}
		tokens := l.counter.Count(prefix)
		if tokens <= remaining {
			return prefix, tokens, true
		}
	}
	return "", 0, false
}

// sentenceBoundaries returns the byte offsets just past each sentence end:
// terminal punctuation followed by whitespace or end of text, and line
// breaks.
func sentenceBoundaries(text string) []int {
	var boundaries []int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				boundaries = append(boundaries, i+1)
			}
		case '\n':
			boundaries = append(boundaries, i)
		}
	}
	return boundaries
}
