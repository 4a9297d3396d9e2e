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
	"io"
	"net/url"

	"github.com/kadirpekel/genai/internal/sse"
)

// Models is the generate-family service: content generation, token
// accounting and embeddings.
type Models struct {
	client *Client
}

// TokenEstimator produces a local token count for a content sequence,
// short-circuiting the network count-tokens call. Implementations live
// in pkg/tokenizer.
type TokenEstimator interface {
	EstimateTokens(contents []*Content) (int32, error)
}

// StreamChunk is one element of a streaming generate. Exactly one of
// Response and Err is set; an Err chunk is always the last.
type StreamChunk struct {
	Response *GenerateContentResponse
	Err      error
}

// buildGenerateRequest assembles the wire body from contents and config.
func buildGenerateRequest(contents []*Content, cfg *GenerateContentConfig) *generateContentRequest {
	req := &generateContentRequest{Contents: contents}
	if cfg == nil {
		return req
	}

	req.SystemInstruction = cfg.SystemInstruction
	req.SafetySettings = cfg.SafetySettings
	req.ModelArmorConfig = cfg.ModelArmorConfig
	req.Tools = cfg.Tools
	req.ToolConfig = cfg.ToolConfig
	req.CachedContent = cfg.CachedContent
	req.Labels = cfg.Labels
	if !cfg.isZero() {
		req.GenerationConfig = cfg
	}
	return req
}

// GenerateContent issues a unary generate call.
func (m *Models) GenerateContent(ctx context.Context, model string, contents []*Content, cfg *GenerateContentConfig) (*GenerateContentResponse, error) {
	if err := validateGenerateRequest(model, contents, cfg); err != nil {
		return nil, err
	}

	opts := m.client.callOptions(httpOptions(cfg))
	path := m.client.d.modelPath(model) + ":generateContent"

	data, err := m.client.tr.PostJSON(ctx, path, nil, buildGenerateRequest(contents, cfg), opts)
	if err != nil {
		return nil, err
	}

	var resp GenerateContentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode generate response", Err: err}
	}
	return &resp, nil
}

// GenerateContentStream issues a streaming generate call. The returned
// channel yields responses in server order and is closed after the last
// chunk; an error chunk, when present, is final. Cancel ctx to abandon
// the stream.
func (m *Models) GenerateContentStream(ctx context.Context, model string, contents []*Content, cfg *GenerateContentConfig) (<-chan StreamChunk, error) {
	if err := validateGenerateRequest(model, contents, cfg); err != nil {
		return nil, err
	}

	opts := m.client.callOptions(httpOptions(cfg))
	path := m.client.d.modelPath(model) + ":streamGenerateContent"
	query := url.Values{"alt": []string{"sse"}}

	resp, err := m.client.tr.PostStream(ctx, path, query, buildGenerateRequest(contents, cfg), opts)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamChunk, 2)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		dec := sse.NewDecoder(resp.Body)
		for {
			event, err := dec.Next()
			if err != nil {
				if err != io.EOF {
					emit(ctx, out, StreamChunk{Err: err})
				}
				return
			}

			var chunk GenerateContentResponse
			if err := json.Unmarshal(event.Data, &chunk); err != nil {
				emit(ctx, out, StreamChunk{Err: &ParseError{Message: "could not decode stream chunk", Err: err}})
				return
			}
			if !emit(ctx, out, StreamChunk{Response: &chunk}) {
				return
			}
		}
	}()

	return out, nil
}

// emit delivers a chunk unless the consumer is gone.
func emit(ctx context.Context, out chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// CountTokensConfig tunes a count-tokens call.
type CountTokensConfig struct {
	SystemInstruction *Content
	Tools             []*Tool

	// Estimator, when set, computes the count locally and no request is
	// sent.
	Estimator TokenEstimator

	HTTPOptions *HTTPOptions
}

// CountTokensResponse is the result of a count-tokens call.
type CountTokensResponse struct {
	TotalTokens             int32 `json:"totalTokens,omitempty"`
	CachedContentTokenCount int32 `json:"cachedContentTokenCount,omitempty"`
}

type countTokensRequest struct {
	Contents          []*Content `json:"contents"`
	SystemInstruction *Content   `json:"systemInstruction,omitempty"`
	Tools             []*Tool    `json:"tools,omitempty"`
}

// CountTokens returns the token count of the given contents, locally
// when an estimator is configured and via the backend otherwise.
func (m *Models) CountTokens(ctx context.Context, model string, contents []*Content, cfg *CountTokensConfig) (*CountTokensResponse, error) {
	if cfg != nil && cfg.Estimator != nil {
		total, err := cfg.Estimator.EstimateTokens(contents)
		if err != nil {
			return nil, err
		}
		return &CountTokensResponse{TotalTokens: total}, nil
	}

	body := &countTokensRequest{Contents: contents}
	var opts *HTTPOptions
	if cfg != nil {
		body.SystemInstruction = cfg.SystemInstruction
		body.Tools = cfg.Tools
		opts = cfg.HTTPOptions
	}

	path := m.client.d.modelPath(model) + ":countTokens"
	data, err := m.client.tr.PostJSON(ctx, path, nil, body, m.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var resp CountTokensResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode count-tokens response", Err: err}
	}
	return &resp, nil
}

// TokensInfo aligns token ids with their byte representations for one
// part.
type TokensInfo struct {
	TokenIDs []int64  `json:"tokenIds,omitempty"`
	Tokens   [][]byte `json:"tokens,omitempty"`
	Role     string   `json:"role,omitempty"`
}

// UnmarshalJSON accepts token ids both as numbers and as the int64
// strings Vertex puts on the wire.
func (t *TokensInfo) UnmarshalJSON(data []byte) error {
	var wire struct {
		TokenIDs []json.Number `json:"tokenIds"`
		Tokens   [][]byte      `json:"tokens"`
		Role     string        `json:"role"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	t.Tokens = wire.Tokens
	t.Role = wire.Role
	t.TokenIDs = t.TokenIDs[:0]
	for _, id := range wire.TokenIDs {
		v, err := id.Int64()
		if err != nil {
			return err
		}
		t.TokenIDs = append(t.TokenIDs, v)
	}
	return nil
}

// ComputeTokensResponse is the result of a compute-tokens call.
type ComputeTokensResponse struct {
	TokensInfo []*TokensInfo `json:"tokensInfo,omitempty"`
}

// ComputeTokens returns per-part token ids and bytes. Vertex only.
func (m *Models) ComputeTokens(ctx context.Context, model string, contents []*Content, opts *HTTPOptions) (*ComputeTokensResponse, error) {
	if err := m.client.requireVertex("ComputeTokens"); err != nil {
		return nil, err
	}

	body := map[string]any{"contents": contents}
	path := m.client.d.modelPath(model) + ":computeTokens"
	data, err := m.client.tr.PostJSON(ctx, path, nil, body, m.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var resp ComputeTokensResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode compute-tokens response", Err: err}
	}
	return &resp, nil
}

// EmbedContentConfig tunes an embedding call. MIMEType and AutoTruncate
// are Vertex-only.
type EmbedContentConfig struct {
	TaskType             string
	Title                string
	OutputDimensionality *int32
	MIMEType             string
	AutoTruncate         *bool

	HTTPOptions *HTTPOptions
}

// ContentEmbedding is one embedding vector.
type ContentEmbedding struct {
	Values     []float32      `json:"values,omitempty"`
	Statistics map[string]any `json:"statistics,omitempty"`
}

// EmbedContentResponse collects the embeddings of an embed call, one
// per input content.
type EmbedContentResponse struct {
	Embeddings []*ContentEmbedding `json:"embeddings,omitempty"`
}

type embedRequestEntry struct {
	Model                string   `json:"model,omitempty"`
	Content              *Content `json:"content,omitempty"`
	TaskType             string   `json:"taskType,omitempty"`
	Title                string   `json:"title,omitempty"`
	OutputDimensionality *int32   `json:"outputDimensionality,omitempty"`
}

// EmbedContent computes embeddings for each input content. The Gemini
// API wires the inputs as a list of per-content requests; Vertex uses
// the predict protocol.
func (m *Models) EmbedContent(ctx context.Context, model string, contents []*Content, cfg *EmbedContentConfig) (*EmbedContentResponse, error) {
	if cfg == nil {
		cfg = &EmbedContentConfig{}
	}

	if m.client.d.backend == BackendVertexAI {
		return m.embedVertex(ctx, model, contents, cfg)
	}

	if cfg.MIMEType != "" {
		return nil, invalidConfigf("embedding mimeType is only available on the Vertex backend")
	}
	if cfg.AutoTruncate != nil {
		return nil, invalidConfigf("embedding autoTruncate is only available on the Vertex backend")
	}

	modelPath := m.client.d.modelPath(model)
	requests := make([]*embedRequestEntry, 0, len(contents))
	for _, content := range contents {
		requests = append(requests, &embedRequestEntry{
			Model:                modelPath,
			Content:              content,
			TaskType:             cfg.TaskType,
			Title:                cfg.Title,
			OutputDimensionality: cfg.OutputDimensionality,
		})
	}

	body := map[string]any{"requests": requests}
	data, err := m.client.tr.PostJSON(ctx, modelPath+":batchEmbedContents", nil, body, m.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}

	var resp EmbedContentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode embedding response", Err: err}
	}
	return &resp, nil
}

func (m *Models) embedVertex(ctx context.Context, model string, contents []*Content, cfg *EmbedContentConfig) (*EmbedContentResponse, error) {
	instances := make([]map[string]any, 0, len(contents))
	for _, content := range contents {
		inst := map[string]any{"content": contentText(content)}
		if cfg.TaskType != "" {
			inst["task_type"] = cfg.TaskType
		}
		if cfg.Title != "" {
			inst["title"] = cfg.Title
		}
		if cfg.MIMEType != "" {
			inst["mimeType"] = cfg.MIMEType
		}
		instances = append(instances, inst)
	}

	parameters := map[string]any{}
	if cfg.OutputDimensionality != nil {
		parameters["outputDimensionality"] = *cfg.OutputDimensionality
	}
	if cfg.AutoTruncate != nil {
		parameters["autoTruncate"] = *cfg.AutoTruncate
	}

	body := map[string]any{"instances": instances}
	if len(parameters) > 0 {
		body["parameters"] = parameters
	}

	path := m.client.d.modelPath(model) + ":predict"
	data, err := m.client.tr.PostJSON(ctx, path, nil, body, m.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}

	var wire struct {
		Predictions []struct {
			Embeddings *ContentEmbedding `json:"embeddings"`
		} `json:"predictions"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ParseError{Message: "could not decode embedding response", Err: err}
	}

	resp := &EmbedContentResponse{}
	for _, p := range wire.Predictions {
		resp.Embeddings = append(resp.Embeddings, p.Embeddings)
	}
	return resp, nil
}

// contentText concatenates the text parts of a content.
func contentText(c *Content) string {
	if c == nil {
		return ""
	}
	text := ""
	for _, p := range c.Parts {
		if p != nil {
			text += p.Text
		}
	}
	return text
}

func httpOptions(cfg *GenerateContentConfig) *HTTPOptions {
	if cfg == nil {
		return nil
	}
	return cfg.HTTPOptions
}
