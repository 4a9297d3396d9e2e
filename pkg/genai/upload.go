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
	"strconv"
)

// defaultUploadChunkSize is the slice size of resumable uploads.
const defaultUploadChunkSize = 8 * 1024 * 1024

// uploadStart describes the first request of a resumable upload.
type uploadStart struct {
	// path is the upload endpoint relative to "{base}/upload/{version}".
	path string
	// metadata is the JSON body carrying resource metadata.
	metadata any
	// size is the total byte count, negative when unknown.
	size     int64
	mimeType string
	fileName string
}

// startResumableUpload performs the start handshake and returns the
// server-issued chunk upload URL.
func (c *Client) startResumableUpload(ctx context.Context, start uploadStart, opts *HTTPOptions) (string, error) {
	absURL := c.tr.BaseURL(opts) + "/upload/" + c.tr.APIVersion(opts) + "/" + start.path

	headers := http.Header{}
	headers.Set("X-Goog-Upload-Protocol", "resumable")
	headers.Set("X-Goog-Upload-Command", "start")
	if start.size >= 0 {
		headers.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(start.size, 10))
	}
	if start.mimeType != "" {
		headers.Set("X-Goog-Upload-Header-Content-Type", start.mimeType)
	}
	if start.fileName != "" {
		headers.Set("X-Goog-Upload-File-Name", start.fileName)
	}
	headers.Set("Content-Type", "application/json")

	body, err := json.Marshal(start.metadata)
	if err != nil {
		return "", &ParseError{Message: "could not encode upload metadata", Err: err}
	}

	resp, err := c.tr.Do(ctx, http.MethodPost, absURL, headers, bytes.NewReader(body), opts)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	uploadURL := resp.Header.Get("x-goog-upload-url")
	if uploadURL == "" {
		return "", &ParseError{Message: "upload start response is missing the x-goog-upload-url header"}
	}
	return uploadURL, nil
}

// uploadChunks streams r to the chunk URL in fixed-size slices and
// returns the body of the finalize response. An empty input still
// produces one zero-length finalize request.
func (c *Client) uploadChunks(ctx context.Context, uploadURL string, r io.Reader, chunkSize int, opts *HTTPOptions) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = defaultUploadChunkSize
	}

	current, err := readUpTo(r, chunkSize)
	if err != nil {
		return nil, &ParseError{Message: "could not read upload input", Err: err}
	}

	var offset int64
	for {
		// A short chunk is always the last one; a full chunk is last only
		// when the input is exhausted, so read ahead to find out.
		var next []byte
		if len(current) == chunkSize {
			next, err = readUpTo(r, chunkSize)
			if err != nil {
				return nil, &ParseError{Message: "could not read upload input", Err: err}
			}
		}
		last := len(current) < chunkSize || len(next) == 0

		command := "upload"
		if last {
			command = "upload, finalize"
		}

		headers := http.Header{}
		headers.Set("X-Goog-Upload-Command", command)
		headers.Set("X-Goog-Upload-Offset", strconv.FormatInt(offset, 10))

		resp, err := c.tr.Do(ctx, http.MethodPost, uploadURL, headers, bytes.NewReader(current), opts)
		if err != nil {
			return nil, err
		}

		status := resp.Header.Get("x-goog-upload-status")
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, &ParseError{Message: "could not read upload response", Err: readErr}
		}

		switch {
		case status == "":
			return nil, &ParseError{Message: "upload response is missing the x-goog-upload-status header"}
		case last && status != "final":
			return nil, &ParseError{Message: fmt.Sprintf("final chunk acknowledged with status %q, want final", status)}
		case !last && status != "active":
			return nil, &ParseError{Message: fmt.Sprintf("chunk at offset %d acknowledged with status %q, want active", offset, status)}
		}

		if last {
			return body, nil
		}

		offset += int64(len(current))
		current = next
	}
}

// readUpTo fills a chunk from r, short only at end of input.
func readUpTo(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
