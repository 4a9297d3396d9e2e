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
	"sync"
)

// Chats creates chat sessions.
type Chats struct {
	client *Client
}

// Create opens a chat on the given model. The optional history seeds
// the conversation; callable tools, when supplied, are applied to every
// turn.
func (s *Chats) Create(model string, cfg *GenerateContentConfig, history []*Content, tools ...CallableTool) *Chat {
	seed := make([]*Content, len(history))
	copy(seed, history)
	return &Chat{
		models:  s.client.Models,
		model:   model,
		cfg:     cfg,
		tools:   tools,
		history: seed,
	}
}

// Chat is a multi-turn conversation. History access is serialised by
// the session lock; the lock is released for the duration of network
// I/O, so concurrent Send calls are linearised only at the append
// point. On a failed turn the history is left untouched.
type Chat struct {
	models *Models
	model  string
	cfg    *GenerateContentConfig
	tools  []CallableTool

	mu      sync.Mutex
	history []*Content
}

// History returns a copy of the conversation so far.
func (c *Chat) History() []*Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Content, len(c.history))
	copy(out, c.history)
	return out
}

// ClearHistory resets the conversation.
func (c *Chat) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

// Send runs one unary turn. The user message and the model reply are
// appended together after the call succeeds; a reply candidate without
// content appends the user message only.
func (c *Chat) Send(ctx context.Context, parts ...*Part) (*GenerateContentResponse, error) {
	return c.SendWithTools(ctx, nil, parts...)
}

// SendWithTools is Send with additional callable tools for this turn.
func (c *Chat) SendWithTools(ctx context.Context, tools []CallableTool, parts ...*Part) (*GenerateContentResponse, error) {
	user := NewContentFromParts(RoleUser, parts...)
	contents := append(c.History(), user)

	resp, err := c.models.GenerateContentWithTools(ctx, c.model, contents, c.cfg, c.mergedTools(tools))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.history = append(c.history, user)
	if reply := replyContent(resp); reply != nil {
		c.history = append(c.history, reply)
	}
	c.mu.Unlock()

	return resp, nil
}

// SendStream runs one streaming turn. The user message is appended
// eagerly; when the stream completes, the last observed model content
// is appended.
func (c *Chat) SendStream(ctx context.Context, parts ...*Part) (<-chan StreamChunk, error) {
	return c.SendStreamWithTools(ctx, nil, parts...)
}

// SendStreamWithTools is SendStream with additional callable tools for
// this turn.
func (c *Chat) SendStreamWithTools(ctx context.Context, tools []CallableTool, parts ...*Part) (<-chan StreamChunk, error) {
	user := NewContentFromParts(RoleUser, parts...)
	contents := append(c.History(), user)

	stream, err := c.models.GenerateContentStreamWithTools(ctx, c.model, contents, c.cfg, c.mergedTools(tools))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.history = append(c.history, user)
	c.mu.Unlock()

	out := make(chan StreamChunk, 2)
	go func() {
		defer close(out)

		var last *Content
		for chunk := range stream {
			if chunk.Response != nil {
				if reply := replyContent(chunk.Response); reply != nil {
					last = reply
				}
			}
			if !emit(ctx, out, chunk) {
				return
			}
		}

		if last != nil {
			c.mu.Lock()
			c.history = append(c.history, last)
			c.mu.Unlock()
		}
	}()

	return out, nil
}

func (c *Chat) mergedTools(extra []CallableTool) []CallableTool {
	if len(extra) == 0 {
		return c.tools
	}
	merged := make([]CallableTool, 0, len(c.tools)+len(extra))
	merged = append(merged, c.tools...)
	return append(merged, extra...)
}

// replyContent extracts the first candidate's content, nil when the
// candidate carries none.
func replyContent(resp *GenerateContentResponse) *Content {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	if c := resp.Candidates[0].Content; c != nil && len(c.Parts) > 0 {
		return c.clone()
	}
	return nil
}
