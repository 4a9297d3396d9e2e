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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyFor(t *testing.T) {
	tests := []struct {
		model    string
		encoding string
		wantErr  bool
	}{
		{model: "gemini-2.5-pro", encoding: "o200k_base"},
		{model: "gemini-3-flash", encoding: "o200k_base"},
		{model: "gemma-3-27b-it", encoding: "o200k_base"},
		{model: "gemini-2.0-flash", encoding: "cl100k_base"},
		{model: "gemini-1.5-pro", encoding: "cl100k_base"},
		{model: "gemma-2-9b", encoding: "cl100k_base"},
		{model: "models/gemini-2.0-flash", encoding: "cl100k_base"},
		{model: "unknown-model", wantErr: true},
		{model: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			spec, err := familyFor(tt.model)
			if tt.wantErr {
				var modelErr *UnsupportedModelError
				require.ErrorAs(t, err, &modelErr)
				assert.Equal(t, tt.model, modelErr.Model)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.encoding, spec.encoding)
		})
	}
}

func TestPinnedLoader_ParsesVocabulary(t *testing.T) {
	// "aGk=" is "hi", "IA==" is a single space.
	vocab := "aGk= 0\nIA== 1\n\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(vocab))
	}))
	defer server.Close()

	pinnedHashes[server.URL] = hashHex([]byte(vocab))
	defer delete(pinnedHashes, server.URL)

	loader := pinnedLoader{cache: &modelCache{
		dir:    t.TempDir(),
		client: &http.Client{Timeout: time.Minute},
	}}

	ranks, err := loader.LoadTiktokenBpe(server.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hi": 0, " ": 1}, ranks)
}

func TestPinnedLoader_RejectsUnpinnedURL(t *testing.T) {
	loader := pinnedLoader{cache: newModelCache()}

	_, err := loader.LoadTiktokenBpe("https://example.com/not-pinned.tiktoken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pinned hash")
}

func TestPinnedLoader_MalformedVocabulary(t *testing.T) {
	vocab := "not-base64-or-rank\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(vocab))
	}))
	defer server.Close()

	pinnedHashes[server.URL] = hashHex([]byte(vocab))
	defer delete(pinnedHashes, server.URL)

	loader := pinnedLoader{cache: &modelCache{
		dir:    t.TempDir(),
		client: &http.Client{Timeout: time.Minute},
	}}

	_, err := loader.LoadTiktokenBpe(server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed vocabulary")
}

func TestNewSubword_UnsupportedModel(t *testing.T) {
	_, err := NewSubword("llama-3-70b")

	var modelErr *UnsupportedModelError
	assert.ErrorAs(t, err, &modelErr)
}
