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

package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeExtraBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		extra   map[string]any
		want    string
		wantErr bool
	}{
		{
			name:  "disjoint keys",
			body:  `{"a":1}`,
			extra: map[string]any{"b": 2},
			want:  `{"a":1,"b":2}`,
		},
		{
			name:  "scalar overridden",
			body:  `{"a":1}`,
			extra: map[string]any{"a": 2},
			want:  `{"a":2}`,
		},
		{
			name:  "nested objects merged",
			body:  `{"cfg":{"x":1,"y":2}}`,
			extra: map[string]any{"cfg": map[string]any{"y": 3, "z": 4}},
			want:  `{"cfg":{"x":1,"y":3,"z":4}}`,
		},
		{
			name:  "empty extra is a no-op",
			body:  `{"a":1}`,
			extra: nil,
			want:  `{"a":1}`,
		},
		{
			name:    "non-object body rejected",
			body:    `[1,2]`,
			extra:   map[string]any{"a": 1},
			wantErr: true,
		},
		{
			name:    "object versus scalar collision rejected",
			body:    `{"a":{"x":1}}`,
			extra:   map[string]any{"a": 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mergeExtraBody([]byte(tt.body), tt.extra)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
