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
	"net/url"
	"time"
)

// JobState is the lifecycle state of a batch or tuning job.
type JobState string

const (
	JobStatePending   JobState = "JOB_STATE_PENDING"
	JobStateRunning   JobState = "JOB_STATE_RUNNING"
	JobStateSucceeded JobState = "JOB_STATE_SUCCEEDED"
	JobStateFailed    JobState = "JOB_STATE_FAILED"
	JobStateCancelled JobState = "JOB_STATE_CANCELLED"
)

// BatchJobSource is the input of a batch job. FileName and
// InlinedRequests are Gemini-API-only; Format with GCSURIs or
// BigQueryURI is Vertex-only.
type BatchJobSource struct {
	FileName        string
	InlinedRequests []*InlinedRequest

	Format      string
	GCSURIs     []string
	BigQueryURI string
}

// InlinedRequest is one request of an inline batch.
type InlinedRequest struct {
	Contents []*Content             `json:"contents,omitempty"`
	Config   *GenerateContentConfig `json:"generationConfig,omitempty"`
}

// InlinedResponse is one result of an inline batch.
type InlinedResponse struct {
	Response *GenerateContentResponse `json:"response,omitempty"`
	Error    *OperationError          `json:"error,omitempty"`
}

// BatchJobDestination is the output location of a finished batch job.
type BatchJobDestination struct {
	Format           string             `json:"format,omitempty"`
	GCSURI           string             `json:"gcsUri,omitempty"`
	BigQueryURI      string             `json:"bigqueryUri,omitempty"`
	FileName         string             `json:"fileName,omitempty"`
	InlinedResponses []*InlinedResponse `json:"inlinedResponses,omitempty"`
}

// BatchJob is a batch generation job.
type BatchJob struct {
	Name        string               `json:"name,omitempty"`
	DisplayName string               `json:"displayName,omitempty"`
	Model       string               `json:"model,omitempty"`
	State       JobState             `json:"state,omitempty"`
	CreateTime  time.Time            `json:"createTime,omitzero"`
	StartTime   time.Time            `json:"startTime,omitzero"`
	EndTime     time.Time            `json:"endTime,omitzero"`
	UpdateTime  time.Time            `json:"updateTime,omitzero"`
	Dest        *BatchJobDestination `json:"dest,omitempty"`
	Error       *OperationError      `json:"error,omitempty"`
}

// Batches manages batch generation jobs.
type Batches struct {
	client *Client
}

// batchCollection is the per-dialect resource collection name.
func (s *Batches) batchCollection() string {
	if s.client.d.backend == BackendVertexAI {
		return "batchPredictionJobs"
	}
	return "batches"
}

// CreateBatchJobConfig tunes batch creation.
type CreateBatchJobConfig struct {
	DisplayName string

	HTTPOptions *HTTPOptions
}

// Create submits a batch job over the given source.
func (s *Batches) Create(ctx context.Context, model string, src *BatchJobSource, cfg *CreateBatchJobConfig) (*BatchJob, error) {
	if src == nil {
		return nil, invalidConfigf("batch source must not be nil")
	}
	if cfg == nil {
		cfg = &CreateBatchJobConfig{}
	}

	if s.client.d.backend == BackendVertexAI {
		return s.createVertex(ctx, model, src, cfg)
	}
	return s.createGemini(ctx, model, src, cfg)
}

func (s *Batches) createGemini(ctx context.Context, model string, src *BatchJobSource, cfg *CreateBatchJobConfig) (*BatchJob, error) {
	if src.Format != "" || len(src.GCSURIs) > 0 || src.BigQueryURI != "" {
		return nil, invalidConfigf("gcs and bigquery batch sources are only available on the Vertex backend")
	}
	if src.FileName == "" && len(src.InlinedRequests) == 0 {
		return nil, invalidConfigf("batch source requires fileName or inlinedRequests")
	}
	if src.FileName != "" && len(src.InlinedRequests) > 0 {
		return nil, invalidConfigf("batch fileName and inlinedRequests are mutually exclusive")
	}

	inputConfig := map[string]any{}
	if src.FileName != "" {
		file, err := normalizeResourceName(src.FileName, "files")
		if err != nil {
			return nil, err
		}
		inputConfig["fileName"] = file
	} else {
		requests := make([]map[string]any, 0, len(src.InlinedRequests))
		for _, req := range src.InlinedRequests {
			requests = append(requests, map[string]any{
				"request": buildGenerateRequest(req.Contents, req.Config),
			})
		}
		inputConfig["requests"] = map[string]any{"requests": requests}
	}

	body := map[string]any{
		"batch": map[string]any{
			"displayName": cfg.DisplayName,
			"inputConfig": inputConfig,
		},
	}

	path := s.client.d.modelPath(model) + ":batchGenerateContent"
	data, err := s.client.tr.PostJSON(ctx, path, nil, body, s.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}

	// The Gemini API answers with an Operation whose metadata carries the
	// job; fall back to the bare job shape when it does not.
	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, &ParseError{Message: "could not decode batch response", Err: err}
	}
	if op.Name != "" && op.Metadata != nil {
		meta, _ := json.Marshal(op.Metadata)
		var job BatchJob
		if err := json.Unmarshal(meta, &job); err == nil && job.Name != "" {
			return &job, nil
		}
		return &BatchJob{Name: op.Name}, nil
	}
	return decodeBatchJob(data)
}

func (s *Batches) createVertex(ctx context.Context, model string, src *BatchJobSource, cfg *CreateBatchJobConfig) (*BatchJob, error) {
	if src.FileName != "" || len(src.InlinedRequests) > 0 {
		return nil, invalidConfigf("fileName and inlinedRequests batch sources are only available on the Gemini API backend")
	}
	if len(src.GCSURIs) == 0 && src.BigQueryURI == "" {
		return nil, invalidConfigf("batch source requires gcs uris or a bigquery uri")
	}

	inputConfig := map[string]any{"instancesFormat": src.Format}
	outputConfig := map[string]any{"predictionsFormat": src.Format}
	if len(src.GCSURIs) > 0 {
		inputConfig["gcsSource"] = map[string]any{"uris": src.GCSURIs}
	} else {
		inputConfig["bigquerySource"] = map[string]any{"inputUri": src.BigQueryURI}
		outputConfig["bigqueryDestination"] = map[string]any{"outputUri": src.BigQueryURI + "_output"}
	}

	body := map[string]any{
		"displayName":  cfg.DisplayName,
		"model":        s.client.d.modelPath(model),
		"inputConfig":  inputConfig,
		"outputConfig": outputConfig,
	}

	path := s.client.d.resourcePath("batchPredictionJobs")
	data, err := s.client.tr.PostJSON(ctx, path, nil, body, s.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}
	return decodeBatchJob(data)
}

// Get fetches a batch job by bare id or qualified name.
func (s *Batches) Get(ctx context.Context, name string, opts *HTTPOptions) (*BatchJob, error) {
	canonical, err := s.batchName(name)
	if err != nil {
		return nil, err
	}

	data, err := s.client.tr.GetJSON(ctx, canonical, nil, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}
	return decodeBatchJob(data)
}

// Cancel requests cancellation of a running batch job.
func (s *Batches) Cancel(ctx context.Context, name string, opts *HTTPOptions) error {
	canonical, err := s.batchName(name)
	if err != nil {
		return err
	}
	_, err = s.client.tr.PostJSON(ctx, canonical+":cancel", nil, struct{}{}, s.client.callOptions(opts))
	return err
}

// Delete removes a batch job record.
func (s *Batches) Delete(ctx context.Context, name string, opts *HTTPOptions) error {
	canonical, err := s.batchName(name)
	if err != nil {
		return err
	}
	return s.client.tr.Delete(ctx, canonical, nil, s.client.callOptions(opts))
}

// ListBatchJobsConfig tunes a batch listing. Filter is Vertex-only.
type ListBatchJobsConfig struct {
	PageSize  int32
	PageToken string
	Filter    string

	HTTPOptions *HTTPOptions
}

// ListBatchJobsResponse is one page of batch jobs.
type ListBatchJobsResponse struct {
	BatchJobs     []*BatchJob `json:"batchPredictionJobs,omitempty"`
	Batches       []*BatchJob `json:"batches,omitempty"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

// Jobs returns the job list regardless of dialect spelling.
func (r *ListBatchJobsResponse) Jobs() []*BatchJob {
	if len(r.BatchJobs) > 0 {
		return r.BatchJobs
	}
	return r.Batches
}

// List returns one page of batch jobs.
func (s *Batches) List(ctx context.Context, cfg *ListBatchJobsConfig) (*ListBatchJobsResponse, error) {
	query := url.Values{}
	var opts *HTTPOptions
	if cfg != nil {
		addPageParams(query, cfg.PageSize, cfg.PageToken)
		if cfg.Filter != "" {
			if s.client.d.backend != BackendVertexAI {
				return nil, invalidConfigf("batch list filter is only available on the Vertex backend")
			}
			query.Set("filter", cfg.Filter)
		}
		opts = cfg.HTTPOptions
	}

	path := s.client.d.resourcePath(s.batchCollection())
	data, err := s.client.tr.GetJSON(ctx, path, query, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var resp ListBatchJobsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode batch listing", Err: err}
	}
	return &resp, nil
}

func (s *Batches) batchName(name string) (string, error) {
	canonical, err := normalizeResourceName(name, s.batchCollection())
	if err != nil {
		return "", err
	}
	return s.client.d.resourcePath(canonical), nil
}

func decodeBatchJob(data []byte) (*BatchJob, error) {
	var job BatchJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, &ParseError{Message: "could not decode batch job", Err: err}
	}
	return &job, nil
}
