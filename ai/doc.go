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


// Package ai defines the interfaces for AI services used by docquery:
// text embedding for semantic search and optional LLM-based chunk
// enrichment at ingestion time.
//
// Embedding internals are deliberately out of scope: callers see only the
// Embedder interface, and implementations may be local models or remote
// services. The ai/openai subpackage provides an implementation for
// OpenAI-compatible APIs; ai/mock provides deterministic test doubles.
package ai
