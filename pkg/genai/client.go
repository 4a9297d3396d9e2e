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

// Package genai is the client surface of the SDK: one canonical
// request/response model bridged onto the Gemini API and Vertex AI
// dialects, with generate, chat, automatic function calling, resumable
// uploads and the resource services built on top.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kadirpekel/genai/pkg/auth"
	"github.com/kadirpekel/genai/pkg/config"
	"github.com/kadirpekel/genai/pkg/httpclient"
	"github.com/kadirpekel/genai/pkg/logger"
)

// HTTPOptions is the per-call transport overlay, re-exported so callers
// of this package rarely need to import pkg/httpclient directly.
type HTTPOptions = httpclient.HTTPOptions

// ClientConfig configures a Client. The zero value targets the Gemini
// API with environment-discovered settings.
type ClientConfig struct {
	// Backend selects the dialect. Defaults to BackendGeminiAPI.
	Backend Backend

	// APIKey authenticates Gemini API calls. Mutually exclusive with
	// Credentials; rejected for Vertex.
	APIKey string

	// Project and Location identify the Vertex resource parent.
	Project  string
	Location string

	// Credentials supplies OAuth/ADC-style headers per call.
	Credentials auth.CredentialSource

	// BaseURL and APIVersion override the dialect defaults.
	BaseURL    string
	APIVersion string

	// HTTPClient replaces the underlying http.Client.
	HTTPClient *http.Client

	// HTTPOptions is the default per-call overlay.
	HTTPOptions *httpclient.HTTPOptions

	// Logger receives SDK debug logging.
	Logger *slog.Logger
}

// Client is the root of the SDK surface. It is safe for concurrent use;
// all services share one transport.
type Client struct {
	cfg ClientConfig
	d   dialect
	tr  *httpclient.Client
	log *slog.Logger

	Models           *Models
	Chats            *Chats
	Files            *Files
	FileSearchStores *FileSearchStores
	Caches           *Caches
	Batches          *Batches
	Tunings          *Tunings
	Operations       *Operations
	AuthTokens       *AuthTokens
}

// NewClient builds a client. A nil config discovers everything from the
// environment (spec: GEMINI_API_KEY/GOOGLE_API_KEY, GENAI_BASE_URL/
// GEMINI_BASE_URL, GENAI_API_VERSION), loading .env files first.
func NewClient(ctx context.Context, cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		if err := config.LoadEnvFiles(); err != nil {
			logger.GetLogger().Debug("env file load failed", "error", err)
		}
		cfg = &ClientConfig{}
	}

	resolved := *cfg
	env := config.FromEnv()
	if resolved.APIKey == "" && resolved.Credentials == nil {
		resolved.APIKey = env.APIKey
	}
	if resolved.BaseURL == "" {
		resolved.BaseURL = env.BaseURL
	}
	if resolved.APIVersion == "" {
		resolved.APIVersion = env.APIVersion
	}
	if resolved.Project == "" {
		resolved.Project = env.Project
	}
	if resolved.Location == "" {
		resolved.Location = env.Location
	}

	if err := validateClientConfig(&resolved); err != nil {
		return nil, err
	}

	d := dialect{
		backend:  resolved.Backend,
		project:  resolved.Project,
		location: resolved.Location,
	}

	baseURL := resolved.BaseURL
	if baseURL == "" {
		baseURL = d.defaultBaseURL()
	}
	version := resolved.APIVersion
	if version == "" {
		version = d.defaultAPIVersion()
	}

	log := resolved.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	trOpts := []httpclient.Option{
		httpclient.WithBaseURL(baseURL),
		httpclient.WithAPIVersion(version),
		httpclient.WithLogger(log),
	}
	if resolved.HTTPClient != nil {
		trOpts = append(trOpts, httpclient.WithHTTPClient(resolved.HTTPClient))
	}
	if resolved.APIKey != "" {
		trOpts = append(trOpts, httpclient.WithAPIKey(resolved.APIKey))
	}
	if resolved.Credentials != nil {
		trOpts = append(trOpts, httpclient.WithCredentialSource(resolved.Credentials))
	}

	c := &Client{
		cfg: resolved,
		d:   d,
		tr:  httpclient.New(trOpts...),
		log: log,
	}

	c.Models = &Models{client: c}
	c.Chats = &Chats{client: c}
	c.Files = &Files{client: c}
	c.FileSearchStores = &FileSearchStores{client: c}
	c.Caches = &Caches{client: c}
	c.Batches = &Batches{client: c}
	c.Tunings = &Tunings{client: c}
	c.Operations = &Operations{client: c}
	c.AuthTokens = &AuthTokens{client: c}

	return c, nil
}

func validateClientConfig(cfg *ClientConfig) error {
	if cfg.APIKey != "" && cfg.Credentials != nil {
		return invalidConfigf("API key and credential source are mutually exclusive; configure one")
	}

	switch cfg.Backend {
	case BackendVertexAI:
		if cfg.APIKey != "" {
			return invalidConfigf("the Vertex backend rejects API keys; use a credential source")
		}
		if cfg.Project == "" {
			return invalidConfigf("the Vertex backend requires a project (set Project or GOOGLE_CLOUD_PROJECT)")
		}
	default:
		if cfg.APIKey == "" && cfg.Credentials == nil {
			return invalidConfigf("the Gemini API backend requires a credential: " +
				"set APIKey, GEMINI_API_KEY, GOOGLE_API_KEY or a credential source")
		}
	}

	return nil
}

// Backend returns the active dialect.
func (c *Client) Backend() Backend {
	return c.d.backend
}

// APIKey returns the configured API key, empty for credential-based
// clients. Used by the live package to build WebSocket auth headers.
func (c *Client) APIKey() string {
	return c.cfg.APIKey
}

// LiveEndpoint builds the WebSocket URL and auth headers for a Live
// method. An ephemeral token switches the method to its constrained
// variant, forces API version v1alpha and authenticates via the
// authorization header instead of the API key.
func (c *Client) LiveEndpoint(method, ephemeralToken string) (string, http.Header, error) {
	if err := c.requireGeminiAPI("Live"); err != nil {
		return "", nil, err
	}

	version := c.tr.APIVersion(c.cfg.HTTPOptions)
	headers := http.Header{}
	switch {
	case ephemeralToken != "":
		if method == "BidiGenerateMusic" {
			return "", nil, invalidConfigf("ephemeral tokens are not supported for music sessions")
		}
		method = "BidiGenerateContentConstrained"
		version = "v1alpha"
		headers.Set("authorization", "Token "+ephemeralToken)
	case c.cfg.APIKey != "":
		headers.Set("x-goog-api-key", c.cfg.APIKey)
	default:
		return "", nil, invalidConfigf("live sessions require an API key or an ephemeral token")
	}

	base := c.tr.BaseURL(c.cfg.HTTPOptions)
	base = strings.Replace(base, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)

	endpoint := fmt.Sprintf("%s/ws/google.ai.generativelanguage.%s.GenerativeService.%s", base, version, method)
	return endpoint, headers, nil
}

// callOptions resolves the effective per-call overlay: the per-call
// overlay wins over the client default wholesale.
func (c *Client) callOptions(opts *httpclient.HTTPOptions) *httpclient.HTTPOptions {
	if opts != nil {
		return opts
	}
	return c.cfg.HTTPOptions
}

// requireGeminiAPI rejects Gemini-API-only operations on Vertex.
func (c *Client) requireGeminiAPI(op string) error {
	if c.d.backend != BackendGeminiAPI {
		return invalidConfigf("%s is only available on the Gemini API backend", op)
	}
	return nil
}

// requireVertex rejects Vertex-only operations on the Gemini API.
func (c *Client) requireVertex(op string) error {
	if c.d.backend != BackendVertexAI {
		return invalidConfigf("%s is only available on the Vertex backend", op)
	}
	return nil
}
