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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseText(t *testing.T) {
	var nilResp *GenerateContentResponse
	assert.Empty(t, nilResp.Text())
	assert.Empty(t, (&GenerateContentResponse{}).Text())

	resp := &GenerateContentResponse{Candidates: []*Candidate{{
		Content: &Content{Role: RoleModel, Parts: []*Part{
			{Text: "thinking...", Thought: true},
			{Text: "Hello, "},
			nil,
			{Text: "world"},
		}},
	}}}
	assert.Equal(t, "Hello, world", resp.Text())
}

func TestResponseFunctionCalls(t *testing.T) {
	resp := &GenerateContentResponse{Candidates: []*Candidate{
		{Content: &Content{Parts: []*Part{
			{FunctionCall: &FunctionCall{Name: "first"}},
			{Text: "aside"},
		}}},
		nil,
		{Content: &Content{Parts: []*Part{
			{FunctionCall: &FunctionCall{Name: "second"}},
		}}},
	}}

	calls := resp.FunctionCalls()
	assert.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "second", calls[1].Name)

	assert.Empty(t, (&GenerateContentResponse{}).FunctionCalls())
}

func TestCitationMetadataSources(t *testing.T) {
	var nilMeta *CitationMetadata
	assert.Nil(t, nilMeta.Sources())

	vertex := &CitationMetadata{Citations: []*Citation{{URI: "https://a"}}}
	assert.Equal(t, "https://a", vertex.Sources()[0].URI)

	gemini := &CitationMetadata{CitationSources: []*Citation{{URI: "https://b"}}}
	assert.Equal(t, "https://b", gemini.Sources()[0].URI)
}
