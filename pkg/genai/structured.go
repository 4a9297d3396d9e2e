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

package genai

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Structured decodes the text of a response into T. Markdown fences
// around the payload are stripped, and malformed JSON gets one repair
// attempt before failing.
func Structured[T any](resp *GenerateContentResponse) (T, error) {
	var out T

	text := strings.TrimSpace(stripFences(resp.Text()))
	if text == "" {
		return out, &ParseError{Message: "response carries no text to decode"}
	}

	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return out, &ParseError{Message: "response text is not valid JSON", Err: err}
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return out, &ParseError{Message: "could not decode structured response", Err: err}
	}
	return out, nil
}

// stripFences removes a surrounding markdown code fence, with or
// without a language tag.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		first := strings.TrimSpace(trimmed[:i])
		if first == "json" || first == "" {
			trimmed = trimmed[i+1:]
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
}
