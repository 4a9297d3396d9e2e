// Copyright 2025 Kadir Pekel
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

// Package genai provides a Go client SDK for Google's multimodal
// generative AI services (Gemini API and Vertex AI).
//
// The SDK reconciles the two backend dialects behind a single client
// surface: text, image, video and audio generation, tool calling with an
// automatic function-calling driver, SSE streaming, full-duplex Live
// sessions over WebSocket, resumable uploads, and local token estimation.
//
// # Quick Start
//
// Create a client from the environment (reads GEMINI_API_KEY or
// GOOGLE_API_KEY):
//
//	client, err := genai.NewClient(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := client.Models.GenerateContent(ctx, "gemini-2.0-flash",
//	    genai.Text("Tell me about Go"), nil)
//	fmt.Println(resp.Text())
//
// # Packages
//
//	import (
//	    "github.com/kadirpekel/genai/pkg/genai"      // client surface
//	    "github.com/kadirpekel/genai/pkg/live"       // Live sessions
//	    "github.com/kadirpekel/genai/pkg/tokenizer"  // local token counts
//	    "github.com/kadirpekel/genai/pkg/functiontool"
//	)
//
// # Key Features
//
//   - Single canonical request/response model for both backend dialects
//   - Automatic function calling with caller-supplied handlers
//   - SSE streaming and bidirectional Live (WebSocket) sessions
//   - Resumable uploads for Files and FileSearchStores
//   - Local token estimation with an optional subword tokenizer
//
// # Stability
//
// The SDK follows the upstream v1beta surfaces; fields and services may
// change as the backends evolve.
package genai
