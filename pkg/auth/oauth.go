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

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expirySkew renews tokens slightly before their wall-clock expiry so a
// token never goes stale mid-request.
const expirySkew = 30 * time.Second

// Token is a cached OAuth access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
}

// Valid reports whether the token is usable now.
func (t Token) Valid() bool {
	return t.AccessToken != "" && time.Now().Add(expirySkew).Before(t.Expiry)
}

// RefreshFunc exchanges a refresh credential for a fresh access token.
// The refresh credential itself is owned by the caller.
type RefreshFunc func(ctx context.Context) (Token, error)

// OAuthCache is a CredentialSource backed by an on-disk token cache.
// Concurrent header requests share a single refresh via singleflight.
type OAuthCache struct {
	path    string
	refresh RefreshFunc
	group   singleflight.Group

	mu    sync.RWMutex
	token Token
}

// NewOAuthCache creates a cache persisted at path. The file is created
// on first refresh; a pre-existing file primes the in-memory token.
func NewOAuthCache(path string, refresh RefreshFunc) *OAuthCache {
	c := &OAuthCache{path: path, refresh: refresh}

	if data, err := os.ReadFile(path); err == nil {
		var tok Token
		if err := json.Unmarshal(data, &tok); err == nil {
			c.token = tok
		}
	}

	return c
}

// Headers returns an Authorization bearer header, refreshing the token
// when it is absent or expired.
func (c *OAuthCache) Headers(ctx context.Context) (http.Header, error) {
	c.mu.RLock()
	tok := c.token
	c.mu.RUnlock()

	if !tok.Valid() {
		fresh, err, _ := c.group.Do("refresh", func() (any, error) {
			return c.doRefresh(ctx)
		})
		if err != nil {
			return nil, err
		}
		tok = fresh.(Token)
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok.AccessToken)
	return h, nil
}

func (c *OAuthCache) doRefresh(ctx context.Context) (Token, error) {
	// A concurrent caller may have refreshed while this one queued.
	c.mu.RLock()
	tok := c.token
	c.mu.RUnlock()
	if tok.Valid() {
		return tok, nil
	}

	if c.refresh == nil {
		return Token{}, &Error{Message: "no refresh function configured"}
	}

	fresh, err := c.refresh(ctx)
	if err != nil {
		return Token{}, &Error{Message: "token refresh failed", Err: err}
	}
	if fresh.AccessToken == "" {
		return Token{}, &Error{Message: "refresh returned an empty access token"}
	}

	c.mu.Lock()
	c.token = fresh
	c.mu.Unlock()

	if err := c.persist(fresh); err != nil {
		return Token{}, err
	}

	return fresh, nil
}

// persist writes the token file atomically (tmp file + rename).
func (c *OAuthCache) persist(tok Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return &Error{Message: "failed to encode token cache", Err: err}
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &Error{Message: "failed to create token cache directory", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return &Error{Message: "failed to create token cache file", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &Error{Message: "failed to write token cache", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &Error{Message: "failed to write token cache", Err: err}
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return &Error{Message: "failed to persist token cache", Err: err}
	}

	return nil
}
