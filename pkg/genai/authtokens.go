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
	"sort"
	"strings"
	"time"
)

// AuthToken is a short-lived ephemeral credential for Live sessions.
type AuthToken struct {
	Name string `json:"name,omitempty"`
}

// AuthTokens issues ephemeral tokens. Gemini API only; the endpoint
// lives under API version v1alpha.
type AuthTokens struct {
	client *Client
}

// CreateAuthTokenConfig constrains the token being issued.
type CreateAuthTokenConfig struct {
	// Uses bounds how many sessions the token may start.
	Uses                 int32
	ExpireTime           time.Time
	NewSessionExpireTime time.Time

	// LiveConstraintsModel pins the token to one model.
	LiveConstraintsModel string
	// LiveConstraints pins fields of the live setup message; keys are
	// setup field names in wire form.
	LiveConstraints map[string]any

	// LockAdditionalFields adds entries to the generated field mask.
	LockAdditionalFields []string

	HTTPOptions *HTTPOptions
}

// Create issues an ephemeral token.
func (s *AuthTokens) Create(ctx context.Context, cfg *CreateAuthTokenConfig) (*AuthToken, error) {
	if err := s.client.requireGeminiAPI("AuthTokens.Create"); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &CreateAuthTokenConfig{}
	}

	body := map[string]any{}
	if cfg.Uses > 0 {
		body["uses"] = cfg.Uses
	}
	if !cfg.ExpireTime.IsZero() {
		body["expireTime"] = cfg.ExpireTime.UTC().Format(time.RFC3339Nano)
	}
	if !cfg.NewSessionExpireTime.IsZero() {
		body["newSessionExpireTime"] = cfg.NewSessionExpireTime.UTC().Format(time.RFC3339Nano)
	}

	setup := map[string]any{}
	for k, v := range cfg.LiveConstraints {
		setup[k] = v
	}
	if cfg.LiveConstraintsModel != "" {
		setup["model"] = s.client.d.modelPath(cfg.LiveConstraintsModel)
	}
	if len(setup) > 0 {
		body["bidiGenerateContentSetup"] = setup
	}

	if mask := buildFieldMask(setup, cfg.LockAdditionalFields); mask != "" {
		body["fieldMask"] = mask
	}

	opts := s.client.callOptions(cfg.HTTPOptions)
	if opts == nil || opts.APIVersion == "" {
		overlay := HTTPOptions{APIVersion: "v1alpha"}
		if opts != nil {
			overlay = *opts
			overlay.APIVersion = "v1alpha"
		}
		opts = &overlay
	}

	data, err := s.client.tr.PostJSON(ctx, "auth_tokens", nil, body, opts)
	if err != nil {
		return nil, err
	}

	var token AuthToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, &ParseError{Message: "could not decode auth token", Err: err}
	}
	return &token, nil
}

// buildFieldMask expands the setup map into parent.child mask entries.
// Entries are sorted so the mask is deterministic.
func buildFieldMask(setup map[string]any, additional []string) string {
	var entries []string
	for key := range setup {
		entries = append(entries, "bidiGenerateContentSetup."+key)
	}
	entries = append(entries, additional...)
	sort.Strings(entries)
	return strings.Join(entries, ",")
}
