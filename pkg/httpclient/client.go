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

// Package httpclient implements the SDK transport: a thin wrapper over
// net/http that injects credentials and the telemetry header, applies
// per-call HTTPOptions overlays, and surfaces non-2xx responses as typed
// errors. It never retries.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/kadirpekel/genai/pkg/logger"
)

const telemetryHeader = "x-goog-api-client"

var telemetryValue = fmt.Sprintf("genai-go/0.1.0 gl-go/%s", strings.TrimPrefix(runtime.Version(), "go"))

// CredentialSource supplies authenticated request headers on demand.
// Implementations live in pkg/auth; the transport only consumes them.
type CredentialSource interface {
	Headers(ctx context.Context) (http.Header, error)
}

// Client is the shared SDK transport. It is safe for concurrent use.
type Client struct {
	client     *http.Client
	baseURL    string
	apiVersion string
	apiKey     string
	creds      CredentialSource
	headers    http.Header
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithBaseURL sets the default base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIVersion sets the default API version path segment.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithAPIKey installs a static API key sent as x-goog-api-key.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithCredentialSource installs a credential source consulted per call.
func WithCredentialSource(creds CredentialSource) Option {
	return func(c *Client) {
		c.creds = creds
	}
}

// WithHeaders sets headers applied to every request.
func WithHeaders(headers http.Header) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithLogger sets the transport logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a transport client.
func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{Timeout: 60 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.GetLogger()
	}

	return c
}

// BaseURL returns the effective base URL for the given overlay.
func (c *Client) BaseURL(opts *HTTPOptions) string {
	if opts != nil && opts.BaseURL != "" {
		return strings.TrimRight(opts.BaseURL, "/")
	}
	return c.baseURL
}

// APIVersion returns the effective API version for the given overlay.
func (c *Client) APIVersion(opts *HTTPOptions) string {
	if opts != nil && opts.APIVersion != "" {
		return opts.APIVersion
	}
	return c.apiVersion
}

// URL joins the effective base URL, API version and resource path, and
// attaches the query string.
func (c *Client) URL(path string, query url.Values, opts *HTTPOptions) string {
	u := c.BaseURL(opts) + "/" + c.APIVersion(opts) + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// PostJSON sends a JSON POST to the given resource path and returns the
// response body.
func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, body any, opts *HTTPOptions) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPost, path, query, body, opts)
}

// PatchJSON sends a JSON PATCH to the given resource path.
func (c *Client) PatchJSON(ctx context.Context, path string, query url.Values, body any, opts *HTTPOptions) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPatch, path, query, body, opts)
}

// GetJSON sends a GET to the given resource path.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, opts *HTTPOptions) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodGet, path, query, nil, opts)
}

// Delete sends a DELETE to the given resource path. The response body is
// discarded; only success or failure is reported.
func (c *Client) Delete(ctx context.Context, path string, query url.Values, opts *HTTPOptions) error {
	_, err := c.sendJSON(ctx, http.MethodDelete, path, query, nil, opts)
	return err
}

func (c *Client) sendJSON(ctx context.Context, method, path string, query url.Values, body any, opts *HTTPOptions) ([]byte, error) {
	resp, err := c.send(ctx, method, c.URL(path, query, opts), nil, body, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.wrapTransportError(err)
	}
	return data, nil
}

// PostStream sends a JSON POST and returns the raw response with the
// body left open for streaming consumption. The caller must close it.
func (c *Client) PostStream(ctx context.Context, path string, query url.Values, body any, opts *HTTPOptions) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, c.URL(path, query, opts), nil, body, opts)
}

// Do sends a request with caller-supplied headers and raw body to an
// absolute URL. Used by the resumable upload protocol, whose chunk URLs
// are server-issued and carry protocol headers of their own. The
// response body is left open.
func (c *Client) Do(ctx context.Context, method, absURL string, headers http.Header, body io.Reader, opts *HTTPOptions) (*http.Response, error) {
	var buf []byte
	if body != nil {
		var err error
		buf, err = io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}
	return c.sendRaw(ctx, method, absURL, headers, buf, "", opts)
}

// send marshals body to JSON, applies the extra-body overlay and
// dispatches the request.
func (c *Client) send(ctx context.Context, method, absURL string, headers http.Header, body any, opts *HTTPOptions) (*http.Response, error) {
	var payload []byte
	contentType := ""

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		if opts != nil && len(opts.ExtraBody) > 0 {
			data, err = mergeExtraBody(data, opts.ExtraBody)
			if err != nil {
				return nil, err
			}
		}
		payload = data
		contentType = "application/json"
	}

	return c.sendRaw(ctx, method, absURL, headers, payload, contentType, opts)
}

func (c *Client) sendRaw(ctx context.Context, method, absURL string, headers http.Header, payload []byte, contentType string, opts *HTTPOptions) (*http.Response, error) {
	// The per-call deadline must also cover reading the response body,
	// so the cancel travels with the body instead of firing here.
	cancel := context.CancelFunc(func() {})
	if opts != nil && opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, absURL, bodyReader)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, vals := range c.headers {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	for key, vals := range headers {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	if opts != nil {
		for key, vals := range opts.Headers {
			for _, v := range vals {
				req.Header.Add(key, v)
			}
		}
	}

	if c.apiKey != "" && req.Header.Get("x-goog-api-key") == "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}
	if c.creds != nil {
		credHeaders, err := c.creds.Headers(ctx)
		if err != nil {
			cancel()
			return nil, err
		}
		// Credential headers never override what the caller already set.
		for key, vals := range credHeaders {
			if req.Header.Get(key) != "" {
				continue
			}
			for _, v := range vals {
				req.Header.Add(key, v)
			}
		}
	}
	req.Header.Set(telemetryHeader, telemetryValue)

	c.logger.Debug("sending request", "method", method, "url", absURL, "bytes", len(payload))

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, c.wrapTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    strings.TrimSpace(string(data)),
		}
	}

	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelReadCloser releases the per-call timeout context when the
// response body is closed.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	c.cancel()
	return c.ReadCloser.Close()
}

func (c *Client) wrapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Message: "request deadline exceeded", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Message: "request timed out", Err: err}
	}
	return &NetworkError{Err: err}
}
