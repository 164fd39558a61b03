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


// Package search provides hybrid retrieval over indexed documentation
// chunks.
//
// The Searcher type runs the vector and keyword branches of a query
// concurrently, fuses their candidate sets under hard metadata filters,
// optionally reranks the fused list across five quality dimensions, and
// truncates the response to a token budget. A failed branch degrades the
// request to the surviving branch instead of failing it, and a deadline
// that expires mid-request yields best-effort partial results flagged as
// such.
package search
