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

package rerank

import (
	"strings"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/lexical"
)

// Ideal code snippet length band, in lines. Snippets shorter than the lower
// bound are usually fragments; longer ones are usually whole files.
const (
	idealMinLines = 5
	idealMaxLines = 50
)

const maxLineLength = 100

// importMarkers identify dependency declarations across common languages.
var importMarkers = []string{
	"import ", "import(", "from ", "require(", "require '", "require \"",
	"#include", "using ", "use ",
}

// definitionMarkers identify function and type definitions.
var definitionMarkers = []string{
	"func ", "def ", "function ", "class ", "fn ", "sub ", "impl ",
	"interface ", "struct ",
}

// setupKeywords signal installation or configuration instructions.
var setupKeywords = []string{
	"install", "setup", "set up", "getting started", "configure",
	"configuration", "initialize", "initialization", "go get",
	"npm install", "pip install", "cargo add", "apt-get", "brew install",
}

// entryPointMarkers identify program entry points.
var entryPointMarkers = []string{
	"func main", "if __name__", "public static void main", "int main(",
	"fn main",
}

// instantiationMarkers identify minimal object/client construction examples.
var instantiationMarkers = []string{
	":= new", "= new ", ".new(", "new(", "create(", ".client(", ".connect(",
	".open(",
}

// RelevanceScore computes the query-dependent relevance of a chunk in [0,1].
// It is always recomputed per query, never read from stored scores.
func RelevanceScore(query string, chunk *core.Chunk) float64 {
	if chunk == nil {
		return 0
	}
	return lexical.Score(query, chunk.Content)
}

// CodeQualityScore rates how well-formed a code snippet is, in [0,1].
// Non-code chunks score 0. The score rewards dependency declarations,
// function or type definitions, inline comments, length within the ideal
// band, and balanced brackets.
func CodeQualityScore(chunk *core.Chunk) float64 {
	if chunk == nil || !chunk.IsCodeSnippet {
		return 0
	}

	content := chunk.Content
	lower := strings.ToLower(content)
	lines := nonEmptyLines(content)

	var score float64

	if containsAny(lower, importMarkers) {
		score += 0.25
	}
	if containsAny(lower, definitionMarkers) {
		score += 0.25
	}
	if hasInlineComments(content) {
		score += 0.15
	}
	score += 0.20 * lengthBandScore(len(lines))
	if balancedBrackets(content) {
		score += 0.15
	}

	return clamp01(score)
}

// FormattingScore rates presentation quality of chunk text in [0,1]:
// indentation consistency, line length under the threshold, and the absence
// of large blank gaps.
func FormattingScore(content string) float64 {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(content) == "" {
		return 0
	}

	var score float64
	score += 0.40 * indentationConsistency(lines)
	score += 0.35 * lineLengthScore(lines)
	if maxBlankRun(lines) <= 2 {
		score += 0.25
	}

	return clamp01(score)
}

// MetadataScore gives fractional credit for each present metadata field:
// title, language tag, topic tags, and enrichment text. Absent metadata
// scores 0, never an error.
func MetadataScore(chunk *core.Chunk) float64 {
	if chunk == nil {
		return 0
	}

	var score float64
	if strings.TrimSpace(chunk.Title) != "" {
		score += 0.25
	}
	if strings.TrimSpace(chunk.CodeLanguage) != "" {
		score += 0.25
	}
	if len(chunk.Topics) > 0 {
		score += 0.25
	}
	if strings.TrimSpace(chunk.Enrichment) != "" {
		score += 0.25
	}
	return score
}

// InitializationScore rates how useful a chunk is for getting started, in
// [0,1]: setup/installation keywords, an entry-point pattern, and a minimal
// instantiation example.
func InitializationScore(content string) float64 {
	lower := strings.ToLower(content)
	if strings.TrimSpace(lower) == "" {
		return 0
	}

	var score float64
	if containsAny(lower, setupKeywords) {
		score += 0.40
	}
	if containsAny(lower, entryPointMarkers) {
		score += 0.30
	}
	if containsAny(lower, instantiationMarkers) {
		score += 0.30
	}
	return clamp01(score)
}

// QualityScores computes the four query-independent stage scores for a
// chunk. Called once at ingestion time to populate the stored scores, and
// again at query time when stored scores are not in use.
func QualityScores(chunk *core.Chunk) core.QualityScores {
	if chunk == nil {
		return core.QualityScores{}
	}
	return core.QualityScores{
		CodeQuality:    CodeQualityScore(chunk),
		Formatting:     FormattingScore(chunk.Content),
		Metadata:       MetadataScore(chunk),
		Initialization: InitializationScore(chunk.Content),
	}
}

func containsAny(lower string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func nonEmptyLines(content string) []string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}

func hasInlineComments(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "/*") ||
			strings.HasPrefix(trimmed, "*") {
			return true
		}
		if idx := strings.Index(line, "//"); idx > 0 {
			return true
		}
	}
	return false
}

// lengthBandScore is 1 inside [idealMinLines, idealMaxLines] and tapers
// linearly outside it.
func lengthBandScore(lines int) float64 {
	switch {
	case lines == 0:
		return 0
	case lines < idealMinLines:
		return float64(lines) / float64(idealMinLines)
	case lines > idealMaxLines:
		return float64(idealMaxLines) / float64(lines)
	default:
		return 1
	}
}

func balancedBrackets(content string) bool {
	var round, curly, square int
	for _, r := range content {
		switch r {
		case '(':
			round++
		case ')':
			round--
		case '{':
			curly++
		case '}':
			curly--
		case '[':
			square++
		case ']':
			square--
		}
	}
	return round == 0 && curly == 0 && square == 0
}

// indentationConsistency returns the fraction of indented lines that use the
// dominant indentation character. Text with no indented lines counts as
// consistent.
func indentationConsistency(lines []string) float64 {
	var spaceIndented, tabIndented int
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "\t"):
			tabIndented++
		case strings.HasPrefix(line, " "):
			spaceIndented++
		}
	}

	total := spaceIndented + tabIndented
	if total == 0 {
		return 1
	}
	dominant := spaceIndented
	if tabIndented > dominant {
		dominant = tabIndented
	}
	return float64(dominant) / float64(total)
}

// lineLengthScore returns the fraction of lines at or under the length
// threshold.
func lineLengthScore(lines []string) float64 {
	if len(lines) == 0 {
		return 0
	}
	var within int
	for _, line := range lines {
		if len(line) <= maxLineLength {
			within++
		}
	}
	return float64(within) / float64(len(lines))
}

func maxBlankRun(lines []string) int {
	var run, longest int
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
