package budget

import (
	"strings"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace-separated words as tokens, so tests can
// construct results with exact token counts.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func resultWithTokens(n int) core.RankedResult {
	words := make([]string, n)
	for i := range words {
		words[i] = "word"
	}
	return core.RankedResult{Content: strings.Join(words, " ")}
}

func TestLimiter_Limit(t *testing.T) {
	limiter := NewLimiter(wordCounter{})

	t.Run("first fits second does not", func(t *testing.T) {
		results := []core.RankedResult{resultWithTokens(30), resultWithTokens(40)}
		limited, warning := limiter.Limit(results, core.TokenBudget{MaxTokens: 50})
		require.Len(t, limited, 1)
		assert.False(t, warning)
		assert.Equal(t, 30, wordCounter{}.Count(limited[0].Content))
	})

	t.Run("later smaller result still admitted after a skip", func(t *testing.T) {
		results := []core.RankedResult{resultWithTokens(30), resultWithTokens(40), resultWithTokens(15)}
		limited, warning := limiter.Limit(results, core.TokenBudget{MaxTokens: 50})
		require.Len(t, limited, 2)
		assert.False(t, warning)
		assert.Equal(t, 15, wordCounter{}.Count(limited[1].Content))
	})

	t.Run("aggregate never exceeds budget", func(t *testing.T) {
		results := []core.RankedResult{
			resultWithTokens(20), resultWithTokens(25), resultWithTokens(10),
			resultWithTokens(5), resultWithTokens(40),
		}
		for _, maxTokens := range []int{1, 10, 35, 60, 100} {
			limited, _ := limiter.Limit(results, core.TokenBudget{MaxTokens: maxTokens})
			var total int
			for _, r := range limited {
				total += wordCounter{}.Count(r.Content)
			}
			assert.LessOrEqual(t, total, maxTokens, "budget %d", maxTokens)
		}
	})

	t.Run("too-small budget yields empty list with warning", func(t *testing.T) {
		results := []core.RankedResult{resultWithTokens(30)}
		limited, warning := limiter.Limit(results, core.TokenBudget{MaxTokens: 10})
		assert.Empty(t, limited)
		assert.True(t, warning)
	})

	t.Run("zero budget disables limiting", func(t *testing.T) {
		results := []core.RankedResult{resultWithTokens(30), resultWithTokens(40)}
		limited, warning := limiter.Limit(results, core.TokenBudget{})
		assert.Len(t, limited, 2)
		assert.False(t, warning)
	})

	t.Run("empty input", func(t *testing.T) {
		limited, warning := limiter.Limit(nil, core.TokenBudget{MaxTokens: 10})
		assert.Empty(t, limited)
		assert.False(t, warning)
	})
}

func TestLimiter_PreserveSentences(t *testing.T) {
	limiter := NewLimiter(wordCounter{})

	t.Run("overflowing result is cut at a sentence boundary", func(t *testing.T) {
		results := []core.RankedResult{{
			Content: "First sentence has five words. Second sentence also has five words. Third one overflows the budget entirely.",
		}}
		limited, warning := limiter.Limit(results, core.TokenBudget{MaxTokens: 12, PreserveSentences: true})
		require.Len(t, limited, 1)
		assert.False(t, warning)
		assert.True(t, limited[0].Truncated)
		assert.Equal(t, "First sentence has five words. Second sentence also has five words.", limited[0].Content)
	})

	t.Run("no sentence fits", func(t *testing.T) {
		results := []core.RankedResult{{
			Content: "This single sentence is far too long for such a small budget to accommodate.",
		}}
		limited, warning := limiter.Limit(results, core.TokenBudget{MaxTokens: 3, PreserveSentences: true})
		assert.Empty(t, limited)
		assert.True(t, warning)
	})

	t.Run("without preservation the result is skipped entirely", func(t *testing.T) {
		results := []core.RankedResult{{
			Content: "First sentence here. Second sentence there.",
		}}
		limited, _ := limiter.Limit(results, core.TokenBudget{MaxTokens: 4, PreserveSentences: false})
		assert.Empty(t, limited)
	})

	t.Run("line breaks are boundaries", func(t *testing.T) {
		results := []core.RankedResult{{
			Content: "first line of text\nsecond line of text\nthird line of text",
		}}
		limited, _ := limiter.Limit(results, core.TokenBudget{MaxTokens: 8, PreserveSentences: true})
		require.Len(t, limited, 1)
		assert.Equal(t, "first line of text\nsecond line of text", limited[0].Content)
		assert.True(t, limited[0].Truncated)
	})
}

func TestHeuristicCounter(t *testing.T) {
	counter := HeuristicCounter{}
	assert.Zero(t, counter.Count(""))
	assert.Equal(t, 1, counter.Count("word"))
	assert.Equal(t, 2, counter.Count("eight ch"))
	assert.Equal(t, 3, counter.Count("nine char"))
}

func TestNewLimiter_NilCounterUsesHeuristic(t *testing.T) {
	limiter := NewLimiter(nil)
	results := []core.RankedResult{{Content: strings.Repeat("x", 400)}}

	limited, _ := limiter.Limit(results, core.TokenBudget{MaxTokens: 100})
	assert.Len(t, limited, 1)

	limited, warning := limiter.Limit(results, core.TokenBudget{MaxTokens: 99})
	assert.Empty(t, limited)
	assert.True(t, warning)
}
