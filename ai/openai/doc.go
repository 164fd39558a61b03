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


// Package openai provides AI services backed by OpenAI-compatible APIs.
//
// This package implements the ai.AIProvider interface using the langchaingo
// client, supporting both hosted OpenAI and local servers (Ollama, LocalAI,
// vLLM) that expose the same wire protocol.
package openai
