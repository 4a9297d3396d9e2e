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
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPOptions is a per-call overlay over the client defaults. A nil
// overlay leaves every default in place.
type HTTPOptions struct {
	// BaseURL replaces the client base URL for this call.
	BaseURL string
	// APIVersion replaces the API version path segment for this call.
	APIVersion string
	// Headers are added to the request. They do not override headers the
	// client or credential source already set for the same key; they are
	// appended.
	Headers http.Header
	// Timeout bounds the call, including reading the response body.
	Timeout time.Duration
	// ExtraBody is object-merged into the JSON request body. Merging a
	// non-object body (or a nested non-object collision) is an error.
	ExtraBody map[string]any
}

// mergeExtraBody deep-merges extra into the JSON object encoded by body.
// Both sides must encode to JSON objects.
func mergeExtraBody(body []byte, extra map[string]any) ([]byte, error) {
	if len(extra) == 0 {
		return body, nil
	}

	var base map[string]any
	if err := json.Unmarshal(body, &base); err != nil {
		return nil, fmt.Errorf("extra_body requires a JSON object body: %w", err)
	}

	merged, err := mergeObjects(base, extra)
	if err != nil {
		return nil, err
	}

	return json.Marshal(merged)
}

func mergeObjects(base, extra map[string]any) (map[string]any, error) {
	if base == nil {
		base = make(map[string]any, len(extra))
	}

	for key, val := range extra {
		existing, ok := base[key]
		if !ok {
			base[key] = val
			continue
		}

		existingObj, existingIsObj := existing.(map[string]any)
		valObj, valIsObj := val.(map[string]any)
		if existingIsObj != valIsObj {
			return nil, fmt.Errorf("extra_body merge conflict at %q: object and non-object", key)
		}
		if !valIsObj {
			base[key] = val
			continue
		}

		merged, err := mergeObjects(existingObj, valObj)
		if err != nil {
			return nil, err
		}
		base[key] = merged
	}

	return base, nil
}
