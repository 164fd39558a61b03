package rerank

import (
	"strings"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
)

const connectSnippet = `import database
import logging

// Open a pooled connection and verify it.
func openDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}`

func TestCodeQualityScore(t *testing.T) {
	t.Run("well-formed snippet scores high", func(t *testing.T) {
		chunk := &core.Chunk{Content: connectSnippet, IsCodeSnippet: true}
		score := CodeQualityScore(chunk)
		assert.Greater(t, score, 0.8)
		assert.LessOrEqual(t, score, 1.0)
	})

	t.Run("non-code chunk scores zero", func(t *testing.T) {
		chunk := &core.Chunk{Content: connectSnippet, IsCodeSnippet: false}
		assert.Zero(t, CodeQualityScore(chunk))
	})

	t.Run("bare import scores low", func(t *testing.T) {
		chunk := &core.Chunk{Content: "import database", IsCodeSnippet: true}
		full := &core.Chunk{Content: connectSnippet, IsCodeSnippet: true}
		assert.Less(t, CodeQualityScore(chunk), CodeQualityScore(full))
	})

	t.Run("unbalanced brackets lose credit", func(t *testing.T) {
		balanced := &core.Chunk{Content: "func f() { return }", IsCodeSnippet: true}
		unbalanced := &core.Chunk{Content: "func f() { return", IsCodeSnippet: true}
		assert.Less(t, CodeQualityScore(unbalanced), CodeQualityScore(balanced))
	})

	t.Run("nil chunk scores zero", func(t *testing.T) {
		assert.Zero(t, CodeQualityScore(nil))
	})
}

func TestLengthBandScore(t *testing.T) {
	assert.Equal(t, 0.0, lengthBandScore(0))
	assert.Equal(t, 1.0, lengthBandScore(idealMinLines))
	assert.Equal(t, 1.0, lengthBandScore(30))
	assert.Equal(t, 1.0, lengthBandScore(idealMaxLines))
	assert.Less(t, lengthBandScore(2), 1.0)
	assert.Less(t, lengthBandScore(200), 1.0)
}

func TestFormattingScore(t *testing.T) {
	t.Run("clean text scores high", func(t *testing.T) {
		score := FormattingScore(connectSnippet)
		assert.Greater(t, score, 0.9)
	})

	t.Run("long lines lose credit", func(t *testing.T) {
		long := strings.Repeat("x", 300) + "\n" + strings.Repeat("y", 300)
		assert.Less(t, FormattingScore(long), FormattingScore("short line\nanother"))
	})

	t.Run("mixed indentation loses credit", func(t *testing.T) {
		mixed := "a\n\tindented\n  indented\n\tindented\n  indented"
		consistent := "a\n\tindented\n\tindented\n\tindented\n\tindented"
		assert.Less(t, FormattingScore(mixed), FormattingScore(consistent))
	})

	t.Run("empty text scores zero", func(t *testing.T) {
		assert.Zero(t, FormattingScore(""))
		assert.Zero(t, FormattingScore("   \n  "))
	})
}

func TestMetadataScore(t *testing.T) {
	t.Run("fractional credit per field", func(t *testing.T) {
		chunk := &core.Chunk{}
		assert.Zero(t, MetadataScore(chunk))

		chunk.Title = "Connecting"
		assert.InDelta(t, 0.25, MetadataScore(chunk), 1e-9)

		chunk.CodeLanguage = "go"
		assert.InDelta(t, 0.50, MetadataScore(chunk), 1e-9)

		chunk.Topics = []string{"database"}
		assert.InDelta(t, 0.75, MetadataScore(chunk), 1e-9)

		chunk.Enrichment = "Shows how to open a connection."
		assert.InDelta(t, 1.0, MetadataScore(chunk), 1e-9)
	})

	t.Run("absent metadata is not an error", func(t *testing.T) {
		assert.Zero(t, MetadataScore(nil))
	})
}

func TestInitializationScore(t *testing.T) {
	t.Run("setup keywords", func(t *testing.T) {
		assert.Greater(t, InitializationScore("Run pip install mylib to get started."), 0.0)
	})

	t.Run("entry point and instantiation", func(t *testing.T) {
		content := "func main() {\n\tclient := New(cfg)\n}"
		assert.GreaterOrEqual(t, InitializationScore(content), 0.6)
	})

	t.Run("plain prose scores zero", func(t *testing.T) {
		assert.Zero(t, InitializationScore("The weather was pleasant that afternoon."))
	})
}

func TestQualityScores(t *testing.T) {
	chunk := &core.Chunk{
		Content:       connectSnippet,
		Title:         "Connecting to a database",
		CodeLanguage:  "go",
		IsCodeSnippet: true,
	}
	quality := QualityScores(chunk)
	assert.Greater(t, quality.CodeQuality, 0.0)
	assert.Greater(t, quality.Formatting, 0.0)
	assert.InDelta(t, 0.50, quality.Metadata, 1e-9)

	assert.Equal(t, core.QualityScores{}, QualityScores(nil))
}
