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
	"time"
)

// Operation is a long-running operation handle.
type Operation struct {
	Name     string          `json:"name,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Done     bool            `json:"done,omitempty"`
	Error    *OperationError `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

// OperationError is the terminal error of a failed operation.
type OperationError struct {
	Code    int32            `json:"code,omitempty"`
	Message string           `json:"message,omitempty"`
	Details []map[string]any `json:"details,omitempty"`
}

func (e *OperationError) Err() error {
	if e == nil {
		return nil
	}
	return invalidConfigf("operation failed: %s (code %d)", e.Message, e.Code)
}

// GenerateVideos unwraps the operation response to the video payload.
// The backend nests it under a dialect-specific envelope.
func (o *Operation) GenerateVideos() (*GenerateVideosResponse, error) {
	if len(o.Response) == 0 {
		return nil, &ParseError{Message: "operation carries no response"}
	}

	var envelope struct {
		GenerateVideoResponse *GenerateVideosResponse `json:"generateVideoResponse"`
	}
	if err := json.Unmarshal(o.Response, &envelope); err != nil {
		return nil, &ParseError{Message: "could not decode video operation response", Err: err}
	}
	if envelope.GenerateVideoResponse != nil {
		return envelope.GenerateVideoResponse, nil
	}

	var resp GenerateVideosResponse
	if err := json.Unmarshal(o.Response, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode video operation response", Err: err}
	}
	return &resp, nil
}

// Operations polls long-running operations by name.
type Operations struct {
	client *Client
}

// Get fetches the current state of an operation.
func (s *Operations) Get(ctx context.Context, name string, opts *HTTPOptions) (*Operation, error) {
	if name == "" {
		return nil, invalidConfigf("operation name must not be empty")
	}

	data, err := s.client.tr.GetJSON(ctx, s.client.d.resourcePath(name), nil, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, &ParseError{Message: "could not decode operation", Err: err}
	}
	return &op, nil
}

// WaitConfig tunes operation polling.
type WaitConfig struct {
	// PollInterval between Get calls. Defaults to 10s.
	PollInterval time.Duration

	HTTPOptions *HTTPOptions
}

// Wait polls an operation until it is done or ctx expires. A failed
// operation surfaces its terminal error.
func (s *Operations) Wait(ctx context.Context, op *Operation, cfg *WaitConfig) (*Operation, error) {
	interval := 10 * time.Second
	var opts *HTTPOptions
	if cfg != nil {
		if cfg.PollInterval > 0 {
			interval = cfg.PollInterval
		}
		opts = cfg.HTTPOptions
	}

	current := op
	for {
		if current != nil && current.Done {
			if current.Error != nil {
				return current, current.Error.Err()
			}
			return current, nil
		}

		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-time.After(interval):
		}

		next, err := s.Get(ctx, op.Name, opts)
		if err != nil {
			return current, err
		}
		current = next
	}
}
