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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkRecord captures one chunk request seen by the fake upload server.
type chunkRecord struct {
	command string
	offset  int64
	size    int
}

// uploadServer fakes the resumable upload protocol: the start handshake
// issues a chunk URL, every chunk is acknowledged as active, and the
// finalize request returns finalBody with status final.
func uploadServer(t *testing.T, finalBody string) (*httptest.Server, *[]chunkRecord, *http.Header) {
	t.Helper()

	var chunks []chunkRecord
	var startHeaders http.Header

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		startHeaders = r.Header.Clone()
		w.Header().Set("x-goog-upload-url", server.URL+"/chunks")
		w.Write([]byte("{}"))
	})
	mux.HandleFunc("/chunks", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		offset, _ := strconv.ParseInt(r.Header.Get("X-Goog-Upload-Offset"), 10, 64)
		command := r.Header.Get("X-Goog-Upload-Command")
		chunks = append(chunks, chunkRecord{command: command, offset: offset, size: len(data)})

		if strings.Contains(command, "finalize") {
			w.Header().Set("x-goog-upload-status", "final")
			w.Write([]byte(finalBody))
			return
		}
		w.Header().Set("x-goog-upload-status", "active")
		w.Write([]byte("{}"))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &chunks, &startHeaders
}

func TestUploadChunks_SlicingAndOffsets(t *testing.T) {
	server, chunks, _ := uploadServer(t, `{"ok":true}`)
	c := newTestClient(t, server.URL)

	input := bytes.Repeat([]byte("x"), 20)
	body, err := c.uploadChunks(context.Background(), server.URL+"/chunks",
		bytes.NewReader(input), 8, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	require.Len(t, *chunks, 3)
	assert.Equal(t, chunkRecord{command: "upload", offset: 0, size: 8}, (*chunks)[0])
	assert.Equal(t, chunkRecord{command: "upload", offset: 8, size: 8}, (*chunks)[1])
	assert.Equal(t, chunkRecord{command: "upload, finalize", offset: 16, size: 4}, (*chunks)[2])
}

func TestUploadChunks_ExactMultipleFinalizesLastFullChunk(t *testing.T) {
	server, chunks, _ := uploadServer(t, `{}`)
	c := newTestClient(t, server.URL)

	input := bytes.Repeat([]byte("y"), 16)
	_, err := c.uploadChunks(context.Background(), server.URL+"/chunks",
		bytes.NewReader(input), 8, nil)
	require.NoError(t, err)

	require.Len(t, *chunks, 2)
	assert.Equal(t, chunkRecord{command: "upload", offset: 0, size: 8}, (*chunks)[0])
	assert.Equal(t, chunkRecord{command: "upload, finalize", offset: 8, size: 8}, (*chunks)[1])
}

func TestUploadChunks_EmptyInput(t *testing.T) {
	server, chunks, _ := uploadServer(t, `{}`)
	c := newTestClient(t, server.URL)

	_, err := c.uploadChunks(context.Background(), server.URL+"/chunks",
		bytes.NewReader(nil), 8, nil)
	require.NoError(t, err)

	require.Len(t, *chunks, 1)
	assert.Equal(t, chunkRecord{command: "upload, finalize", offset: 0, size: 0}, (*chunks)[0])
}

func TestUploadChunks_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Finalize acknowledged as active instead of final.
		w.Header().Set("x-goog-upload-status", "active")
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.uploadChunks(context.Background(), server.URL, strings.NewReader("tiny"), 8, nil)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "final")
}

func TestStartResumableUpload_MissingUploadURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.startResumableUpload(context.Background(), uploadStart{
		path: "files", metadata: map[string]any{}, size: 1,
	}, nil)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestFilesUpload(t *testing.T) {
	final := fmt.Sprintf(`{"file":{"name":"files/abc","mimeType":"text/plain","sizeBytes":"11","state":%q}}`, "ACTIVE")
	server, chunks, startHeaders := uploadServer(t, final)

	c := newTestClient(t, server.URL)
	file, err := c.Files.Upload(context.Background(), strings.NewReader("hello world"), &UploadFileConfig{
		DisplayName: "greeting.txt",
		MIMEType:    "text/plain",
		Size:        11,
	})
	require.NoError(t, err)

	assert.Equal(t, "files/abc", file.Name)
	assert.Equal(t, int64(11), file.SizeBytes)
	assert.Equal(t, FileStateActive, file.State)

	require.Len(t, *chunks, 1)
	assert.Equal(t, "upload, finalize", (*chunks)[0].command)

	h := *startHeaders
	assert.Equal(t, "resumable", h.Get("X-Goog-Upload-Protocol"))
	assert.Equal(t, "start", h.Get("X-Goog-Upload-Command"))
	assert.Equal(t, "11", h.Get("X-Goog-Upload-Header-Content-Length"))
	assert.Equal(t, "text/plain", h.Get("X-Goog-Upload-Header-Content-Type"))
	assert.Equal(t, "greeting.txt", h.Get("X-Goog-Upload-File-Name"))
}

func TestFilesUpload_VertexRejected(t *testing.T) {
	c := newVertexTestClient(t, "https://unused.test")

	_, err := c.Files.Upload(context.Background(), strings.NewReader("x"), nil)
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)
}

func TestFileState_StripsStatePrefix(t *testing.T) {
	var f File
	require.NoError(t, json.Unmarshal([]byte(`{"state":"STATE_ACTIVE"}`), &f))
	assert.Equal(t, FileStateActive, f.State)
}
