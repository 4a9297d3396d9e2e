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
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	c := New(WithBaseURL("https://example.com/"), WithAPIVersion("v1beta"))

	tests := []struct {
		name  string
		path  string
		query url.Values
		opts  *HTTPOptions
		want  string
	}{
		{
			name: "default",
			path: "models/gemini-2.0-flash:generateContent",
			want: "https://example.com/v1beta/models/gemini-2.0-flash:generateContent",
		},
		{
			name: "leading slash trimmed",
			path: "/files/abc",
			want: "https://example.com/v1beta/files/abc",
		},
		{
			name:  "query attached",
			path:  "models/m:streamGenerateContent",
			query: url.Values{"alt": []string{"sse"}},
			want:  "https://example.com/v1beta/models/m:streamGenerateContent?alt=sse",
		},
		{
			name: "overlay wins",
			path: "models/m:generateContent",
			opts: &HTTPOptions{BaseURL: "https://other.test/", APIVersion: "v1alpha"},
			want: "https://other.test/v1alpha/models/m:generateContent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.URL(tt.path, tt.query, tt.opts))
		})
	}
}

func TestPostJSON_SendsCredentialsAndTelemetry(t *testing.T) {
	var got *http.Request
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := New(
		WithBaseURL(server.URL),
		WithAPIVersion("v1beta"),
		WithAPIKey("test-key"),
	)

	resp, err := c.PostJSON(context.Background(), "models/m:generateContent", nil, map[string]any{"x": 1}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp))

	assert.Equal(t, "/v1beta/models/m:generateContent", got.URL.Path)
	assert.Equal(t, "test-key", got.Header.Get("x-goog-api-key"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Contains(t, got.Header.Get("x-goog-api-client"), "genai-go/")
	assert.JSONEq(t, `{"x":1}`, string(body))
}

func TestPostJSON_PerCallHeaderDoesNotLoseAPIKey(t *testing.T) {
	var apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-goog-api-key")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithAPIVersion("v1"), WithAPIKey("default-key"))

	opts := &HTTPOptions{Headers: http.Header{"X-Goog-Api-Key": []string{"call-key"}}}
	_, err := c.PostJSON(context.Background(), "p", nil, map[string]any{}, opts)
	require.NoError(t, err)

	// The per-call header wins; the client key must not overwrite it.
	assert.Equal(t, "call-key", apiKey)
}

type staticCreds http.Header

func (s staticCreds) Headers(ctx context.Context) (http.Header, error) {
	return http.Header(s), nil
}

func TestPostJSON_CredentialSourceHeaders(t *testing.T) {
	var authz string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	creds := staticCreds{"Authorization": []string{"Bearer tok"}}
	c := New(WithBaseURL(server.URL), WithAPIVersion("v1"), WithCredentialSource(creds))

	_, err := c.PostJSON(context.Background(), "p", nil, map[string]any{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", authz)
}

func TestPostJSON_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithAPIVersion("v1"))

	_, err := c.PostJSON(context.Background(), "p", nil, map[string]any{}, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "quota")
	assert.True(t, IsAPIError(err, http.StatusTooManyRequests))
	assert.True(t, IsAPIError(err, 0))
	assert.False(t, IsAPIError(err, http.StatusNotFound))
}

func TestPostJSON_TimeoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithAPIVersion("v1"))

	_, err := c.PostJSON(context.Background(), "p", nil, map[string]any{}, &HTTPOptions{Timeout: 20 * time.Millisecond})
	require.Error(t, err)

	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestPostJSON_NetworkError(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:1"), WithAPIVersion("v1"))

	_, err := c.PostJSON(context.Background(), "p", nil, map[string]any{}, nil)
	require.Error(t, err)

	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestPostJSON_ExtraBodyMerged(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithAPIVersion("v1"))

	opts := &HTTPOptions{ExtraBody: map[string]any{
		"labels": map[string]any{"env": "test"},
	}}
	payload := map[string]any{
		"contents": []any{"hello"},
		"labels":   map[string]any{"team": "sdk"},
	}
	_, err := c.PostJSON(context.Background(), "p", nil, payload, opts)
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, map[string]any{"env": "test", "team": "sdk"}, sent["labels"])
	assert.Equal(t, []any{"hello"}, sent["contents"])
}

func TestDelete(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithAPIVersion("v1beta"))
	require.NoError(t, c.Delete(context.Background(), "files/abc", nil, nil))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/v1beta/files/abc", path)
}

func TestPostStream_BodyLeftOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {}\n\n"))
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithAPIVersion("v1"))

	resp, err := c.PostStream(context.Background(), "p", nil, map[string]any{}, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "data: {}\n\n", string(data))
}

type failingCreds struct{}

func (failingCreds) Headers(ctx context.Context) (http.Header, error) {
	return nil, errors.New("refresh failed")
}

func TestPostJSON_CredentialFailureAborts(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := New(WithBaseURL(server.URL), WithAPIVersion("v1"), WithCredentialSource(failingCreds{}))

	_, err := c.PostJSON(context.Background(), "p", nil, map[string]any{}, nil)
	require.Error(t, err)
	assert.False(t, called)
}
