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
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FileState is the lifecycle state of an uploaded file.
type FileState string

const (
	FileStateProcessing FileState = "PROCESSING"
	FileStateActive     FileState = "ACTIVE"
	FileStateFailed     FileState = "FAILED"
)

// UnmarshalJSON accepts both the canonical names and the STATE_-prefixed
// aliases some endpoints emit.
func (s *FileState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = FileState(strings.TrimPrefix(raw, "STATE_"))
	return nil
}

// File is an uploaded file resource.
type File struct {
	Name           string          `json:"name,omitempty"`
	DisplayName    string          `json:"displayName,omitempty"`
	MIMEType       string          `json:"mimeType,omitempty"`
	SizeBytes      int64           `json:"sizeBytes,omitempty,string"`
	CreateTime     time.Time       `json:"createTime,omitzero"`
	UpdateTime     time.Time       `json:"updateTime,omitzero"`
	ExpirationTime time.Time       `json:"expirationTime,omitzero"`
	SHA256Hash     []byte          `json:"sha256Hash,omitempty"`
	URI            string          `json:"uri,omitempty"`
	DownloadURI    string          `json:"downloadUri,omitempty"`
	State          FileState       `json:"state,omitempty"`
	Source         string          `json:"source,omitempty"`
	Error          *OperationError `json:"error,omitempty"`
}

// Files manages uploaded files. Gemini API only.
type Files struct {
	client *Client
}

// UploadFileConfig tunes a file upload.
type UploadFileConfig struct {
	Name        string
	DisplayName string
	MIMEType    string
	// Size is the total byte count when known, negative otherwise.
	Size int64

	HTTPOptions *HTTPOptions
}

// Upload streams r to the Files resumable-upload endpoint and returns
// the created file.
func (s *Files) Upload(ctx context.Context, r io.Reader, cfg *UploadFileConfig) (*File, error) {
	if err := s.client.requireGeminiAPI("Files.Upload"); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &UploadFileConfig{Size: -1}
	}

	meta := map[string]string{}
	if cfg.Name != "" {
		meta["name"] = qualifyName(cfg.Name, "files")
	}
	if cfg.DisplayName != "" {
		meta["displayName"] = cfg.DisplayName
	}

	opts := s.client.callOptions(cfg.HTTPOptions)
	uploadURL, err := s.client.startResumableUpload(ctx, uploadStart{
		path:     "files",
		metadata: map[string]any{"file": meta},
		size:     cfg.Size,
		mimeType: cfg.MIMEType,
		fileName: cfg.DisplayName,
	}, opts)
	if err != nil {
		return nil, err
	}

	body, err := s.client.uploadChunks(ctx, uploadURL, r, defaultUploadChunkSize, opts)
	if err != nil {
		return nil, err
	}

	var wire struct {
		File *File `json:"file"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &ParseError{Message: "could not decode upload response", Err: err}
	}
	if wire.File == nil {
		return nil, &ParseError{Message: "upload response carries no file"}
	}
	return wire.File, nil
}

// Get fetches a file by bare id, qualified name or download URL.
func (s *Files) Get(ctx context.Context, name string, opts *HTTPOptions) (*File, error) {
	if err := s.client.requireGeminiAPI("Files.Get"); err != nil {
		return nil, err
	}
	canonical, err := normalizeResourceName(name, "files")
	if err != nil {
		return nil, err
	}

	data, err := s.client.tr.GetJSON(ctx, canonical, nil, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &ParseError{Message: "could not decode file", Err: err}
	}
	return &file, nil
}

// ListFilesConfig tunes a file listing.
type ListFilesConfig struct {
	PageSize  int32
	PageToken string

	HTTPOptions *HTTPOptions
}

// ListFilesResponse is one page of files.
type ListFilesResponse struct {
	Files         []*File `json:"files,omitempty"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// List returns one page of files.
func (s *Files) List(ctx context.Context, cfg *ListFilesConfig) (*ListFilesResponse, error) {
	if err := s.client.requireGeminiAPI("Files.List"); err != nil {
		return nil, err
	}

	query := url.Values{}
	var opts *HTTPOptions
	if cfg != nil {
		addPageParams(query, cfg.PageSize, cfg.PageToken)
		opts = cfg.HTTPOptions
	}

	data, err := s.client.tr.GetJSON(ctx, "files", query, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var resp ListFilesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode file listing", Err: err}
	}
	return &resp, nil
}

// All walks every page of files.
func (s *Files) All(ctx context.Context, cfg *ListFilesConfig) ([]*File, error) {
	var page ListFilesConfig
	if cfg != nil {
		page = *cfg
	}

	var files []*File
	for {
		resp, err := s.List(ctx, &page)
		if err != nil {
			return nil, err
		}
		files = append(files, resp.Files...)
		if resp.NextPageToken == "" {
			return files, nil
		}
		page.PageToken = resp.NextPageToken
	}
}

// Delete removes a file.
func (s *Files) Delete(ctx context.Context, name string, opts *HTTPOptions) error {
	if err := s.client.requireGeminiAPI("Files.Delete"); err != nil {
		return err
	}
	canonical, err := normalizeResourceName(name, "files")
	if err != nil {
		return err
	}
	return s.client.tr.Delete(ctx, canonical, nil, s.client.callOptions(opts))
}

// Download fetches the raw bytes of a generated file.
func (s *Files) Download(ctx context.Context, name string, opts *HTTPOptions) ([]byte, error) {
	if err := s.client.requireGeminiAPI("Files.Download"); err != nil {
		return nil, err
	}
	canonical, err := normalizeResourceName(name, "files")
	if err != nil {
		return nil, err
	}
	return s.client.tr.GetJSON(ctx, canonical+":download", url.Values{"alt": []string{"media"}}, s.client.callOptions(opts))
}

// WaitForActiveConfig tunes file-state polling.
type WaitForActiveConfig struct {
	// PollInterval between state checks. Defaults to 2s.
	PollInterval time.Duration
	// Timeout bounds the whole wait, unbounded when zero.
	Timeout time.Duration

	HTTPOptions *HTTPOptions
}

// WaitForActive polls a file until it becomes ACTIVE. A FAILED state or
// an expired timeout is an error.
func (s *Files) WaitForActive(ctx context.Context, name string, cfg *WaitForActiveConfig) (*File, error) {
	interval := 2 * time.Second
	var opts *HTTPOptions
	if cfg != nil {
		if cfg.PollInterval > 0 {
			interval = cfg.PollInterval
		}
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		opts = cfg.HTTPOptions
	}

	for {
		file, err := s.Get(ctx, name, opts)
		if err != nil {
			return nil, err
		}

		switch file.State {
		case FileStateActive:
			return file, nil
		case FileStateFailed:
			msg := "file processing failed"
			if file.Error != nil && file.Error.Message != "" {
				msg = file.Error.Message
			}
			return file, invalidConfigf("%s: %s", file.Name, msg)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// addPageParams attaches the shared pagination query parameters.
func addPageParams(query url.Values, pageSize int32, pageToken string) {
	if pageSize > 0 {
		query.Set("pageSize", strconv.Itoa(int(pageSize)))
	}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}
}
