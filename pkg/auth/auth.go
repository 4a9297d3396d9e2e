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

// Package auth provides the credential sources the transport consults
// before each request: static API keys, an on-disk OAuth token cache,
// and injected header providers for Application Default Credentials.
//
// Credential discovery (device flows, ADC lookup) is out of scope; the
// surrounding program hands this package a refresh function or a header
// provider and the package handles caching and single-flight refresh.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// Error reports a credential failure.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CredentialSource supplies authenticated request headers on demand.
type CredentialSource interface {
	Headers(ctx context.Context) (http.Header, error)
}

// APIKeyFromEnv returns the API key from GEMINI_API_KEY or
// GOOGLE_API_KEY, first match wins. Empty when neither is set.
func APIKeyFromEnv() string {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
