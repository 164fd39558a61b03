package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Range(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
	}{
		{"identical", "connect to a database", "connect to a database"},
		{"partial", "database connection", "open the database first, then connect"},
		{"unrelated", "kubernetes ingress", "baking sourdough bread at home"},
		{"repeated terms", "redis", "redis redis redis redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.query, tt.text)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestScore_EmptyQuery(t *testing.T) {
	assert.Equal(t, 0.0, Score("", "some document text"))
	assert.Equal(t, 0.0, Score("   ", "some document text"))
}

func TestScore_EmptyText(t *testing.T) {
	assert.Equal(t, 0.0, Score("query", ""))
}

func TestScore_PhraseBeatsScattered(t *testing.T) {
	query := "connect to a database"
	phrase := "To connect to a database, call Open with a DSN."
	scattered := "The database holds connection pools. A pool can connect lazily."

	assert.Greater(t, Score(query, phrase), Score(query, scattered))
}

func TestScore_CaseInsensitive(t *testing.T) {
	assert.Equal(t,
		Score("Redis Cluster", "redis cluster setup guide"),
		Score("redis cluster", "REDIS CLUSTER setup guide"))
}

func TestScore_Deterministic(t *testing.T) {
	query := "how to configure logging"
	text := "Configure logging by passing a handler. Logging defaults to stderr."
	first := Score(query, text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(query, text))
	}
}

func TestScore_UnrelatedIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Score("kubernetes", "gardening tips for spring"))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "filters stop words",
			text: "how to connect to the database",
			want: []string{"connect", "database"},
		},
		{
			name: "trims punctuation",
			text: "Open(), then: close!",
			want: []string{"open", "then", "close"},
		},
		{
			name: "all stop words falls back to raw words",
			text: "how to do it",
			want: []string{"how", "to", "do", "it"},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestContainsAllWords(t *testing.T) {
	assert.True(t, ContainsAllWords("connect to a postgres database", "database connect"))
	assert.False(t, ContainsAllWords("connect to a postgres database", "mysql connect"))
	assert.False(t, ContainsAllWords("anything", ""))
}
