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
	"net/url"
	"strconv"
	"time"
)

// CachedContent is a server-side content cache reusable across
// generate calls.
type CachedContent struct {
	Name          string         `json:"name,omitempty"`
	DisplayName   string         `json:"displayName,omitempty"`
	Model         string         `json:"model,omitempty"`
	CreateTime    time.Time      `json:"createTime,omitzero"`
	UpdateTime    time.Time      `json:"updateTime,omitzero"`
	ExpireTime    time.Time      `json:"expireTime,omitzero"`
	UsageMetadata map[string]any `json:"usageMetadata,omitempty"`
}

// Caches manages cached content on the backend.
type Caches struct {
	client *Client
}

// CreateCachedContentConfig describes the cache to create. KMSKeyName
// is Vertex-only and wires under encryptionSpec.
type CreateCachedContentConfig struct {
	Contents          []*Content
	SystemInstruction *Content
	Tools             []*Tool
	ToolConfig        *ToolConfig
	DisplayName       string
	// TTL and ExpireTime are mutually exclusive.
	TTL        time.Duration
	ExpireTime time.Time
	KMSKeyName string

	HTTPOptions *HTTPOptions
}

type createCachedContentRequest struct {
	Model             string          `json:"model,omitempty"`
	Contents          []*Content      `json:"contents,omitempty"`
	SystemInstruction *Content        `json:"systemInstruction,omitempty"`
	Tools             []*Tool         `json:"tools,omitempty"`
	ToolConfig        *ToolConfig     `json:"toolConfig,omitempty"`
	DisplayName       string          `json:"displayName,omitempty"`
	TTL               string          `json:"ttl,omitempty"`
	ExpireTime        string          `json:"expireTime,omitempty"`
	EncryptionSpec    *encryptionSpec `json:"encryptionSpec,omitempty"`
}

type encryptionSpec struct {
	KMSKeyName string `json:"kmsKeyName,omitempty"`
}

// Create caches contents under a model.
func (s *Caches) Create(ctx context.Context, model string, cfg *CreateCachedContentConfig) (*CachedContent, error) {
	if cfg == nil {
		cfg = &CreateCachedContentConfig{}
	}
	if cfg.TTL > 0 && !cfg.ExpireTime.IsZero() {
		return nil, invalidConfigf("cache ttl and expireTime are mutually exclusive")
	}
	if cfg.KMSKeyName != "" && s.client.d.backend != BackendVertexAI {
		return nil, invalidConfigf("kmsKeyName is only available on the Vertex backend")
	}

	body := &createCachedContentRequest{
		Model:             s.client.d.modelPath(model),
		Contents:          cfg.Contents,
		SystemInstruction: cfg.SystemInstruction,
		Tools:             cfg.Tools,
		ToolConfig:        cfg.ToolConfig,
		DisplayName:       cfg.DisplayName,
	}
	if cfg.TTL > 0 {
		body.TTL = durationString(cfg.TTL)
	}
	if !cfg.ExpireTime.IsZero() {
		body.ExpireTime = cfg.ExpireTime.UTC().Format(time.RFC3339Nano)
	}
	if cfg.KMSKeyName != "" {
		body.EncryptionSpec = &encryptionSpec{KMSKeyName: cfg.KMSKeyName}
	}

	path := s.client.d.resourcePath("cachedContents")
	data, err := s.client.tr.PostJSON(ctx, path, nil, body, s.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}
	return decodeCachedContent(data)
}

// Get fetches a cache by bare id or qualified name.
func (s *Caches) Get(ctx context.Context, name string, opts *HTTPOptions) (*CachedContent, error) {
	canonical, err := s.cacheName(name)
	if err != nil {
		return nil, err
	}

	data, err := s.client.tr.GetJSON(ctx, canonical, nil, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}
	return decodeCachedContent(data)
}

// UpdateCachedContentConfig carries the mutable cache fields.
type UpdateCachedContentConfig struct {
	// TTL and ExpireTime are mutually exclusive.
	TTL        time.Duration
	ExpireTime time.Time

	HTTPOptions *HTTPOptions
}

// Update extends or shortens the lifetime of a cache.
func (s *Caches) Update(ctx context.Context, name string, cfg *UpdateCachedContentConfig) (*CachedContent, error) {
	if cfg == nil || (cfg.TTL <= 0 && cfg.ExpireTime.IsZero()) {
		return nil, invalidConfigf("cache update requires ttl or expireTime")
	}
	if cfg.TTL > 0 && !cfg.ExpireTime.IsZero() {
		return nil, invalidConfigf("cache ttl and expireTime are mutually exclusive")
	}
	canonical, err := s.cacheName(name)
	if err != nil {
		return nil, err
	}

	body := map[string]string{}
	if cfg.TTL > 0 {
		body["ttl"] = durationString(cfg.TTL)
	} else {
		body["expireTime"] = cfg.ExpireTime.UTC().Format(time.RFC3339Nano)
	}

	data, err := s.client.tr.PatchJSON(ctx, canonical, nil, body, s.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}
	return decodeCachedContent(data)
}

// ListCachedContentsConfig tunes a cache listing.
type ListCachedContentsConfig struct {
	PageSize  int32
	PageToken string

	HTTPOptions *HTTPOptions
}

// ListCachedContentsResponse is one page of caches.
type ListCachedContentsResponse struct {
	CachedContents []*CachedContent `json:"cachedContents,omitempty"`
	NextPageToken  string           `json:"nextPageToken,omitempty"`
}

// List returns one page of caches.
func (s *Caches) List(ctx context.Context, cfg *ListCachedContentsConfig) (*ListCachedContentsResponse, error) {
	query := url.Values{}
	var opts *HTTPOptions
	if cfg != nil {
		addPageParams(query, cfg.PageSize, cfg.PageToken)
		opts = cfg.HTTPOptions
	}

	path := s.client.d.resourcePath("cachedContents")
	data, err := s.client.tr.GetJSON(ctx, path, query, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var resp ListCachedContentsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode cache listing", Err: err}
	}
	return &resp, nil
}

// All walks every page of caches.
func (s *Caches) All(ctx context.Context, cfg *ListCachedContentsConfig) ([]*CachedContent, error) {
	var page ListCachedContentsConfig
	if cfg != nil {
		page = *cfg
	}

	var caches []*CachedContent
	for {
		resp, err := s.List(ctx, &page)
		if err != nil {
			return nil, err
		}
		caches = append(caches, resp.CachedContents...)
		if resp.NextPageToken == "" {
			return caches, nil
		}
		page.PageToken = resp.NextPageToken
	}
}

// Delete removes a cache.
func (s *Caches) Delete(ctx context.Context, name string, opts *HTTPOptions) error {
	canonical, err := s.cacheName(name)
	if err != nil {
		return err
	}
	return s.client.tr.Delete(ctx, canonical, nil, s.client.callOptions(opts))
}

func (s *Caches) cacheName(name string) (string, error) {
	canonical, err := normalizeResourceName(name, "cachedContents")
	if err != nil {
		return "", err
	}
	return s.client.d.resourcePath(canonical), nil
}

func decodeCachedContent(data []byte) (*CachedContent, error) {
	var cache CachedContent
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, &ParseError{Message: "could not decode cached content", Err: err}
	}
	return &cache, nil
}

// durationString renders a duration in the protobuf "123.456s" form.
func durationString(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
