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
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_SendAppendsTurns(t *testing.T) {
	var sentContents []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		sentContents = body["contents"].([]any)
		w.Write([]byte(textResponse("reply")))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	chat := c.Chats.Create("gemini-2.0-flash", nil, nil)

	resp, err := chat.Send(context.Background(), NewPartFromText("first"))
	require.NoError(t, err)
	assert.Equal(t, "reply", resp.Text())
	assert.Len(t, chat.History(), 2)
	assert.Len(t, sentContents, 1)

	_, err = chat.Send(context.Background(), NewPartFromText("second"))
	require.NoError(t, err)

	history := chat.History()
	require.Len(t, history, 4)
	assert.Equal(t, []string{RoleUser, RoleModel, RoleUser, RoleModel},
		[]string{history[0].Role, history[1].Role, history[2].Role, history[3].Role})

	// The second request carried the full conversation.
	assert.Len(t, sentContents, 3)
}

func TestChat_FailedSendLeavesHistoryUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	chat := c.Chats.Create("gemini-2.0-flash", nil, nil)

	_, err := chat.Send(context.Background(), NewPartFromText("doomed"))
	require.Error(t, err)
	assert.Empty(t, chat.History())
}

func TestChat_SeedHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textResponse("ok")))
	}))
	defer server.Close()

	seed := []*Content{
		NewContentFromParts(RoleUser, NewPartFromText("earlier")),
		NewContentFromParts(RoleModel, NewPartFromText("noted")),
	}

	c := newTestClient(t, server.URL)
	chat := c.Chats.Create("gemini-2.0-flash", nil, seed)
	require.Len(t, chat.History(), 2)

	_, err := chat.Send(context.Background(), NewPartFromText("now"))
	require.NoError(t, err)
	assert.Len(t, chat.History(), 4)

	// The seed slice is copied, not aliased.
	seed[0] = nil
	assert.NotNil(t, chat.History()[0])
}

func TestChat_HistoryReturnsCopy(t *testing.T) {
	c := newTestClient(t, "https://unused.test")
	chat := c.Chats.Create("gemini-2.0-flash", nil, []*Content{
		NewContentFromParts(RoleUser, NewPartFromText("x")),
	})

	history := chat.History()
	history[0] = nil
	require.NotNil(t, chat.History()[0])

	chat.ClearHistory()
	assert.Empty(t, chat.History())
}

func TestChat_SendStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "data: %s\n\n", textResponse("partial"))
		fmt.Fprintf(w, "data: %s\n\n", textResponse("full reply"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	chat := c.Chats.Create("gemini-2.0-flash", nil, nil)

	stream, err := chat.SendStream(context.Background(), NewPartFromText("go"))
	require.NoError(t, err)

	// The user turn is recorded before the stream is drained.
	require.Len(t, chat.History(), 1)
	assert.Equal(t, RoleUser, chat.History()[0].Role)

	var texts []string
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		texts = append(texts, chunk.Response.Text())
	}
	assert.Equal(t, []string{"partial", "full reply"}, texts)

	history := chat.History()
	require.Len(t, history, 2)
	assert.Equal(t, RoleModel, history[1].Role)
	assert.Equal(t, "full reply", history[1].Parts[0].Text)
}
