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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/genai/pkg/httpclient"
)

// textResponse renders a minimal generate response body.
func textResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
}

func TestGenerateContent(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(textResponse("Hi")))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.Models.GenerateContent(context.Background(), "gemini-2.0-flash", Text("Hello"), nil)
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "Hi", resp.Text())

	contents, ok := gotBody["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)
	assert.NotContains(t, gotBody, "generationConfig")
}

func TestGenerateContent_ConfigOnWire(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(textResponse("ok")))
	}))
	defer server.Close()

	temp := 0.5
	cfg := &GenerateContentConfig{
		Temperature:       &temp,
		MaxOutputTokens:   128,
		SystemInstruction: NewContentFromParts("", NewPartFromText("be terse")),
		Labels:            map[string]string{"env": "test"},
	}

	c := newTestClient(t, server.URL)
	_, err := c.Models.GenerateContent(context.Background(), "gemini-2.0-flash", Text("Hello"), cfg)
	require.NoError(t, err)

	gen, ok := gotBody["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.5, gen["temperature"])
	assert.Equal(t, float64(128), gen["maxOutputTokens"])
	assert.Contains(t, gotBody, "systemInstruction")
	assert.Equal(t, map[string]any{"env": "test"}, gotBody["labels"])
}

func TestGenerateContent_APIErrorPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Models.GenerateContent(context.Background(), "gemini-2.0-flash", Text("x"), nil)
	require.Error(t, err)
	assert.True(t, httpclient.IsAPIError(err, http.StatusBadRequest))
}

func TestGenerateContent_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Models.GenerateContent(context.Background(), "gemini-2.0-flash", Text("x"), nil)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestGenerateContentStream(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", textResponse("Hel"))
		fmt.Fprintf(w, "data: %s\n\n", textResponse("lo"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	stream, err := c.Models.GenerateContentStream(context.Background(), "gemini-2.0-flash", Text("greet"), nil)
	require.NoError(t, err)

	var texts []string
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		texts = append(texts, chunk.Response.Text())
	}

	assert.Equal(t, "alt=sse", gotQuery)
	assert.Equal(t, []string{"Hel", "lo"}, texts)
}

func TestGenerateContentStream_MalformedChunkIsFinal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "data: %s\n\n", textResponse("ok"))
		fmt.Fprint(w, "data: {broken\n\n")
		fmt.Fprintf(w, "data: %s\n\n", textResponse("never"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	stream, err := c.Models.GenerateContentStream(context.Background(), "gemini-2.0-flash", Text("x"), nil)
	require.NoError(t, err)

	var chunks []StreamChunk
	for chunk := range stream {
		chunks = append(chunks, chunk)
	}

	require.Len(t, chunks, 2)
	assert.Equal(t, "ok", chunks[0].Response.Text())

	var parseErr *ParseError
	assert.ErrorAs(t, chunks[1].Err, &parseErr)
}

type fixedEstimator struct {
	total int32
	err   error
}

func (e fixedEstimator) EstimateTokens(contents []*Content) (int32, error) {
	return e.total, e.err
}

func TestCountTokens_EstimatorShortCircuits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("estimator-backed count must not reach the network")
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.Models.CountTokens(context.Background(), "gemini-2.0-flash", Text("hello"),
		&CountTokensConfig{Estimator: fixedEstimator{total: 42}})
	require.NoError(t, err)
	assert.Equal(t, int32(42), resp.TotalTokens)
}

func TestCountTokens_EstimatorErrorSurfaces(t *testing.T) {
	c := newTestClient(t, "https://unused.test")

	wantErr := errors.New("unsupported")
	_, err := c.Models.CountTokens(context.Background(), "gemini-2.0-flash", Text("x"),
		&CountTokensConfig{Estimator: fixedEstimator{err: wantErr}})
	assert.ErrorIs(t, err, wantErr)
}

func TestCountTokens_Remote(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"totalTokens":7}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.Models.CountTokens(context.Background(), "gemini-2.0-flash", Text("hello"), nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:countTokens", gotPath)
	assert.Equal(t, int32(7), resp.TotalTokens)
}

func TestComputeTokens_GeminiRejected(t *testing.T) {
	c := newTestClient(t, "https://unused.test")

	_, err := c.Models.ComputeTokens(context.Background(), "gemini-2.0-flash", Text("x"), nil)
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)
}

func TestComputeTokens_Vertex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":computeTokens")
		w.Write([]byte(`{"tokensInfo":[{"tokenIds":["17"],"tokens":["aGk="],"role":"user"}]}`))
	}))
	defer server.Close()

	c := newVertexTestClient(t, server.URL)
	resp, err := c.Models.ComputeTokens(context.Background(), "gemini-2.0-flash", Text("hi"), nil)
	require.NoError(t, err)
	require.Len(t, resp.TokensInfo, 1)
	assert.Equal(t, []int64{17}, resp.TokensInfo[0].TokenIDs)
	assert.Equal(t, []byte("hi"), resp.TokensInfo[0].Tokens[0])
}

func TestEmbedContent_Gemini(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":batchEmbedContents")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(`{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3]}]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.Models.EmbedContent(context.Background(), "text-embedding-004",
		append(Text("one"), Text("two")...), nil)
	require.NoError(t, err)

	requests, ok := gotBody["requests"].([]any)
	require.True(t, ok)
	assert.Len(t, requests, 2)
	require.Len(t, resp.Embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2}, resp.Embeddings[0].Values)
}

func TestEmbedContent_GeminiRejectsVertexFields(t *testing.T) {
	c := newTestClient(t, "https://unused.test")

	_, err := c.Models.EmbedContent(context.Background(), "m", Text("x"),
		&EmbedContentConfig{MIMEType: "text/plain"})
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)

	truthy := true
	_, err = c.Models.EmbedContent(context.Background(), "m", Text("x"),
		&EmbedContentConfig{AutoTruncate: &truthy})
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)
}

func TestEmbedContent_Vertex(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":predict")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(`{"predictions":[{"embeddings":{"values":[1,2,3]}}]}`))
	}))
	defer server.Close()

	dims := int32(3)
	c := newVertexTestClient(t, server.URL)
	resp, err := c.Models.EmbedContent(context.Background(), "text-embedding-004", Text("hello"),
		&EmbedContentConfig{TaskType: "RETRIEVAL_QUERY", OutputDimensionality: &dims})
	require.NoError(t, err)

	instances, ok := gotBody["instances"].([]any)
	require.True(t, ok)
	require.Len(t, instances, 1)
	inst := instances[0].(map[string]any)
	assert.Equal(t, "hello", inst["content"])
	assert.Equal(t, "RETRIEVAL_QUERY", inst["task_type"])

	params := gotBody["parameters"].(map[string]any)
	assert.Equal(t, float64(3), params["outputDimensionality"])

	require.Len(t, resp.Embeddings, 1)
	assert.Equal(t, []float32{1, 2, 3}, resp.Embeddings[0].Values)
}
