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

package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/genai/pkg/genai"
)

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		contents []*genai.Content
		want     int32
	}{
		{"empty", nil, 0},
		{"exact multiple", genai.Text("12345678"), 2},
		{"rounds up", genai.Text("123456789"), 3},
		{"single byte", genai.Text("a"), 1},
		{
			"sums across contents",
			append(genai.Text("1234"), genai.Text("5678")...),
			2,
		},
		{
			"inline data counts",
			[]*genai.Content{{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{genai.NewPartFromBytes(make([]byte, 16), "image/png")},
			}},
			4,
		},
		{
			"function names count",
			[]*genai.Content{{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{genai.NewPartFromFunctionCall("lookup42", nil)},
			}},
			2,
		},
		{
			"nil entries skipped",
			[]*genai.Content{nil, {Parts: []*genai.Part{nil}}},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Heuristic{}.EstimateTokens(tt.contents)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeuristic_Deterministic(t *testing.T) {
	contents := genai.Text("the same input every time")

	first, err := Heuristic{}.EstimateTokens(contents)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Heuristic{}.EstimateTokens(contents)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
