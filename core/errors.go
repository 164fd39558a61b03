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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidAccessLevel indicates an invalid AccessLevel value.
	ErrInvalidAccessLevel = errors.New("invalid access level")

	// ErrScoreOutOfRange indicates a stored quality score is outside [0,1].
	ErrScoreOutOfRange = errors.New("score must be in [0,1]")

	// ErrInvalidWeights indicates a rerank weight vector with negative
	// components or a non-positive sum.
	ErrInvalidWeights = errors.New("invalid rerank weights")

	// ErrInvalidFilters indicates malformed search filters.
	ErrInvalidFilters = errors.New("invalid search filters")

	// ErrInvalidTokenBudget indicates a negative token budget.
	ErrInvalidTokenBudget = errors.New("invalid token budget")
)
