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
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates the token count of a piece of text.
type Counter interface {
	Count(text string) int
}

// charsPerToken is the rough character-to-token ratio for English text.
const charsPerToken = 4

// HeuristicCounter estimates tokens from character count. It needs no
// model data and never errs on the low side for typical prose.
type HeuristicCounter struct{}

var _ Counter = HeuristicCounter{}

// Count returns the estimated token count, rounding up.
func (HeuristicCounter) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// TiktokenCounter counts tokens exactly using a tiktoken BPE encoding.
type TiktokenCounter struct {
	encoder *tiktoken.Tiktoken
}

var _ Counter = (*TiktokenCounter)(nil)

// NewTiktokenCounter creates an exact counter for the named encoding.
// An empty name selects cl100k_base.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{encoder: encoder}, nil
}

// Count returns the exact token count under the configured encoding.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}
