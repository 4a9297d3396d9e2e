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
	"strings"
	"time"
)

// FileSearchStore is a searchable document corpus.
type FileSearchStore struct {
	Name                  string    `json:"name,omitempty"`
	DisplayName           string    `json:"displayName,omitempty"`
	CreateTime            time.Time `json:"createTime,omitzero"`
	UpdateTime            time.Time `json:"updateTime,omitzero"`
	ActiveDocumentsCount  int64     `json:"activeDocumentsCount,omitempty,string"`
	PendingDocumentsCount int64     `json:"pendingDocumentsCount,omitempty,string"`
	FailedDocumentsCount  int64     `json:"failedDocumentsCount,omitempty,string"`
	SizeBytes             int64     `json:"sizeBytes,omitempty,string"`
}

// Document is one indexed document of a store.
type Document struct {
	Name        string    `json:"name,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	MIMEType    string    `json:"mimeType,omitempty"`
	SizeBytes   int64     `json:"sizeBytes,omitempty,string"`
	CreateTime  time.Time `json:"createTime,omitzero"`
	UpdateTime  time.Time `json:"updateTime,omitzero"`
	State       FileState `json:"state,omitempty"`
}

// FileSearchStores manages file search stores and their documents.
// Gemini API only.
type FileSearchStores struct {
	client *Client
}

// CreateFileSearchStoreConfig tunes store creation.
type CreateFileSearchStoreConfig struct {
	DisplayName string

	HTTPOptions *HTTPOptions
}

// Create creates a store.
func (s *FileSearchStores) Create(ctx context.Context, cfg *CreateFileSearchStoreConfig) (*FileSearchStore, error) {
	if err := s.client.requireGeminiAPI("FileSearchStores.Create"); err != nil {
		return nil, err
	}

	body := map[string]string{}
	var opts *HTTPOptions
	if cfg != nil {
		if cfg.DisplayName != "" {
			body["displayName"] = cfg.DisplayName
		}
		opts = cfg.HTTPOptions
	}

	data, err := s.client.tr.PostJSON(ctx, "fileSearchStores", nil, body, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}
	return decodeFileSearchStore(data)
}

// Get fetches a store by bare id or qualified name.
func (s *FileSearchStores) Get(ctx context.Context, name string, opts *HTTPOptions) (*FileSearchStore, error) {
	if err := s.client.requireGeminiAPI("FileSearchStores.Get"); err != nil {
		return nil, err
	}
	canonical, err := normalizeResourceName(name, "fileSearchStores")
	if err != nil {
		return nil, err
	}

	data, err := s.client.tr.GetJSON(ctx, canonical, nil, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}
	return decodeFileSearchStore(data)
}

// ListFileSearchStoresConfig tunes a store listing.
type ListFileSearchStoresConfig struct {
	PageSize  int32
	PageToken string

	HTTPOptions *HTTPOptions
}

// ListFileSearchStoresResponse is one page of stores.
type ListFileSearchStoresResponse struct {
	FileSearchStores []*FileSearchStore `json:"fileSearchStores,omitempty"`
	NextPageToken    string             `json:"nextPageToken,omitempty"`
}

// List returns one page of stores.
func (s *FileSearchStores) List(ctx context.Context, cfg *ListFileSearchStoresConfig) (*ListFileSearchStoresResponse, error) {
	if err := s.client.requireGeminiAPI("FileSearchStores.List"); err != nil {
		return nil, err
	}

	query := url.Values{}
	var opts *HTTPOptions
	if cfg != nil {
		addPageParams(query, cfg.PageSize, cfg.PageToken)
		opts = cfg.HTTPOptions
	}

	data, err := s.client.tr.GetJSON(ctx, "fileSearchStores", query, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var resp ListFileSearchStoresResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode store listing", Err: err}
	}
	return &resp, nil
}

// Delete removes a store. Force also removes its documents.
func (s *FileSearchStores) Delete(ctx context.Context, name string, force bool, opts *HTTPOptions) error {
	if err := s.client.requireGeminiAPI("FileSearchStores.Delete"); err != nil {
		return err
	}
	canonical, err := normalizeResourceName(name, "fileSearchStores")
	if err != nil {
		return err
	}

	query := url.Values{}
	if force {
		query.Set("force", "true")
	}
	return s.client.tr.Delete(ctx, canonical, query, s.client.callOptions(opts))
}

// UploadToFileSearchStoreConfig tunes a direct upload into a store.
type UploadToFileSearchStoreConfig struct {
	DisplayName string
	MIMEType    string
	// Size is the total byte count when known, negative otherwise.
	Size int64

	HTTPOptions *HTTPOptions
}

// Upload streams r into a store via the resumable-upload protocol and
// returns the indexing operation.
func (s *FileSearchStores) Upload(ctx context.Context, store string, r io.Reader, cfg *UploadToFileSearchStoreConfig) (*Operation, error) {
	if err := s.client.requireGeminiAPI("FileSearchStores.Upload"); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &UploadToFileSearchStoreConfig{Size: -1}
	}
	canonical, err := normalizeResourceName(store, "fileSearchStores")
	if err != nil {
		return nil, err
	}

	meta := map[string]string{}
	if cfg.DisplayName != "" {
		meta["displayName"] = cfg.DisplayName
	}

	opts := s.client.callOptions(cfg.HTTPOptions)
	uploadURL, err := s.client.startResumableUpload(ctx, uploadStart{
		path:     canonical + ":uploadToFileSearchStore",
		metadata: meta,
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

	var op Operation
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, &ParseError{Message: "could not decode upload operation", Err: err}
	}
	return &op, nil
}

// ImportFile indexes an already-uploaded file into a store and returns
// the indexing operation.
func (s *FileSearchStores) ImportFile(ctx context.Context, store, fileName string, opts *HTTPOptions) (*Operation, error) {
	if err := s.client.requireGeminiAPI("FileSearchStores.ImportFile"); err != nil {
		return nil, err
	}
	canonical, err := normalizeResourceName(store, "fileSearchStores")
	if err != nil {
		return nil, err
	}
	file, err := normalizeResourceName(fileName, "files")
	if err != nil {
		return nil, err
	}

	body := map[string]string{"fileName": file}
	data, err := s.client.tr.PostJSON(ctx, canonical+":importFile", nil, body, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, &ParseError{Message: "could not decode import operation", Err: err}
	}
	return &op, nil
}

// GetDocument fetches a document by its qualified name.
func (s *FileSearchStores) GetDocument(ctx context.Context, name string, opts *HTTPOptions) (*Document, error) {
	if err := s.client.requireGeminiAPI("FileSearchStores.GetDocument"); err != nil {
		return nil, err
	}
	if !strings.Contains(name, "/documents/") {
		return nil, invalidConfigf("document name %q must be fileSearchStores/{store}/documents/{id}", name)
	}

	data, err := s.client.tr.GetJSON(ctx, name, nil, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Message: "could not decode document", Err: err}
	}
	return &doc, nil
}

// ListDocumentsResponse is one page of documents.
type ListDocumentsResponse struct {
	Documents     []*Document `json:"documents,omitempty"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

// ListDocuments returns one page of a store's documents.
func (s *FileSearchStores) ListDocuments(ctx context.Context, store string, cfg *ListFileSearchStoresConfig) (*ListDocumentsResponse, error) {
	if err := s.client.requireGeminiAPI("FileSearchStores.ListDocuments"); err != nil {
		return nil, err
	}
	canonical, err := normalizeResourceName(store, "fileSearchStores")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	var opts *HTTPOptions
	if cfg != nil {
		addPageParams(query, cfg.PageSize, cfg.PageToken)
		opts = cfg.HTTPOptions
	}

	data, err := s.client.tr.GetJSON(ctx, canonical+"/documents", query, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var resp ListDocumentsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode document listing", Err: err}
	}
	return &resp, nil
}

// DeleteDocument removes a document by its qualified name.
func (s *FileSearchStores) DeleteDocument(ctx context.Context, name string, opts *HTTPOptions) error {
	if err := s.client.requireGeminiAPI("FileSearchStores.DeleteDocument"); err != nil {
		return err
	}
	if !strings.Contains(name, "/documents/") {
		return invalidConfigf("document name %q must be fileSearchStores/{store}/documents/{id}", name)
	}
	return s.client.tr.Delete(ctx, name, nil, s.client.callOptions(opts))
}

func decodeFileSearchStore(data []byte) (*FileSearchStore, error) {
	var store FileSearchStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, &ParseError{Message: "could not decode file search store", Err: err}
	}
	return &store, nil
}
