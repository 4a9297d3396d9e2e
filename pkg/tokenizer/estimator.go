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

// Package tokenizer provides local token counting: a byte-ratio
// heuristic and a subword tokenizer with a pinned, disk-cached
// vocabulary. Both satisfy genai.TokenEstimator.
package tokenizer

import "github.com/kadirpekel/genai/pkg/genai"

// bytesPerToken is the byte-to-token ratio of the heuristic.
const bytesPerToken = 4

// Heuristic estimates tokens as total content bytes divided by four,
// rounded up. Deterministic and model-independent.
type Heuristic struct{}

// EstimateTokens sums the byte counts of every part, including media
// payloads and function names, and divides by the byte ratio.
func (Heuristic) EstimateTokens(contents []*genai.Content) (int32, error) {
	var total int64
	for _, content := range contents {
		if content == nil {
			continue
		}
		for _, p := range content.Parts {
			total += partBytes(p)
		}
	}
	return int32((total + bytesPerToken - 1) / bytesPerToken), nil
}

func partBytes(p *genai.Part) int64 {
	if p == nil {
		return 0
	}

	var n int64
	n += int64(len(p.Text))
	if p.InlineData != nil {
		n += int64(len(p.InlineData.Data))
	}
	if p.FileData != nil {
		n += int64(len(p.FileData.FileURI))
	}
	if p.FunctionCall != nil {
		n += int64(len(p.FunctionCall.Name))
	}
	if p.FunctionResponse != nil {
		n += int64(len(p.FunctionResponse.Name))
	}
	if p.ExecutableCode != nil {
		n += int64(len(p.ExecutableCode.Code))
	}
	if p.CodeExecutionResult != nil {
		n += int64(len(p.CodeExecutionResult.Output))
	}
	return n
}
