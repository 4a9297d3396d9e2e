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
	"net/http"
	"sync"
)

// HeaderProvider adapts an injected header-returning function (such as
// an Application Default Credentials token source) into a
// CredentialSource. The function is invoked once; the result is cached
// for the life of the provider.
type HeaderProvider struct {
	fn   func(ctx context.Context) (http.Header, error)
	once sync.Once

	headers http.Header
	err     error
}

// NewHeaderProvider wraps fn into a cached CredentialSource.
func NewHeaderProvider(fn func(ctx context.Context) (http.Header, error)) *HeaderProvider {
	return &HeaderProvider{fn: fn}
}

// Headers returns the cached headers, initializing them on first call.
func (p *HeaderProvider) Headers(ctx context.Context) (http.Header, error) {
	p.once.Do(func() {
		if p.fn == nil {
			p.err = &Error{Message: "no header provider configured"}
			return
		}
		p.headers, p.err = p.fn(ctx)
	})
	return p.headers, p.err
}

// StaticHeaders is a CredentialSource returning fixed headers. Useful in
// tests and for pre-issued ephemeral tokens.
type StaticHeaders http.Header

// Headers returns the fixed header set.
func (s StaticHeaders) Headers(ctx context.Context) (http.Header, error) {
	return http.Header(s), nil
}
