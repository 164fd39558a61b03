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

package ingestion

import "strings"

// maxProseChunkChars bounds how much prose accumulates into one chunk
// before the chunker flushes it.
const maxProseChunkChars = 1600

// ChunkInput is one piece of a split document before it becomes a stored
// chunk.
type ChunkInput struct {
	Title         string // Nearest preceding heading
	Content       string
	IsCodeSnippet bool
	CodeLanguage  string
}

// SplitMarkdown splits a markdown document into prose and code chunk
// inputs. Fenced code blocks become code chunks tagged with their language;
// prose between headings is grouped into chunks of bounded size, each
// carrying the nearest preceding heading as its title.
func SplitMarkdown(doc string) []*ChunkInput {
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")

	var chunks []*ChunkInput
	var title string
	var prose []string
	var proseLen int

	flushProse := func() {
		text := strings.TrimSpace(strings.Join(prose, "\n"))
		prose = prose[:0]
		proseLen = 0
		if text == "" {
			return
		}
		chunks = append(chunks, &ChunkInput{Title: title, Content: text})
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if heading, ok := parseHeading(line); ok {
			flushProse()
			title = heading
			continue
		}

		if lang, ok := parseFenceOpen(line); ok {
			flushProse()

			var code []string
			for i++; i < len(lines); i++ {
				if isFenceClose(lines[i]) {
					break
				}
				code = append(code, lines[i])
			}

			text := strings.TrimRight(strings.Join(code, "\n"), " \t\n")
			if strings.TrimSpace(text) != "" {
				chunks = append(chunks, &ChunkInput{
					Title:         title,
					Content:       text,
					IsCodeSnippet: true,
					CodeLanguage:  lang,
				})
			}
			continue
		}

		if strings.TrimSpace(line) == "" && proseLen >= maxProseChunkChars {
			flushProse()
			continue
		}

		prose = append(prose, line)
		proseLen += len(line) + 1
	}
	flushProse()

	return chunks
}

func parseHeading(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
		return "", false
	}
	return strings.TrimSpace(trimmed[level:]), true
}

func parseFenceOpen(line string) (lang string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "```") {
		return "", false
	}
	lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	// An info string with spaces keeps only the language token.
	if idx := strings.IndexByte(lang, ' '); idx >= 0 {
		lang = lang[:idx]
	}
	return lang, true
}

func isFenceClose(line string) bool {
	return strings.TrimSpace(line) == "```"
}
