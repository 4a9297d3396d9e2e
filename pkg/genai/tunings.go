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

// TuningExample is one inline training example. Gemini API only.
type TuningExample struct {
	TextInput string `json:"textInput,omitempty"`
	Output    string `json:"output,omitempty"`
}

// TuningDataset is the training data of a tuning job. Examples are
// Gemini-API-only; GCSURI and VertexDataset are Vertex-only.
type TuningDataset struct {
	Examples      []*TuningExample
	GCSURI        string
	VertexDataset string
}

// TuningMethod selects the Vertex tuning spec variant.
type TuningMethod string

const (
	TuningMethodSupervised TuningMethod = "SUPERVISED"
	TuningMethodPreference TuningMethod = "PREFERENCE"
)

// CreateTuningJobConfig carries the tuning hyperparameters. BatchSize
// and LearningRate are Gemini-API-only; LearningRateMultiplier,
// AdapterSize and Method are Vertex-only.
type CreateTuningJobConfig struct {
	DisplayName string
	EpochCount  *int32

	BatchSize    *int32
	LearningRate *float64

	LearningRateMultiplier *float64
	AdapterSize            string
	Method                 TuningMethod

	HTTPOptions *HTTPOptions
}

// TuningJob is a model tuning job.
type TuningJob struct {
	Name        string          `json:"name,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	BaseModel   string          `json:"baseModel,omitempty"`
	TunedModel  string          `json:"tunedModel,omitempty"`
	State       JobState        `json:"state,omitempty"`
	CreateTime  time.Time       `json:"createTime,omitzero"`
	UpdateTime  time.Time       `json:"updateTime,omitzero"`
	EndTime     time.Time       `json:"endTime,omitzero"`
	Error       *OperationError `json:"error,omitempty"`
}

// Tunings manages model tuning jobs.
type Tunings struct {
	client *Client
}

func (s *Tunings) tuningCollection() string {
	if s.client.d.backend == BackendVertexAI {
		return "tuningJobs"
	}
	return "tunedModels"
}

// Tune starts a tuning job on a base model.
func (s *Tunings) Tune(ctx context.Context, baseModel string, dataset *TuningDataset, cfg *CreateTuningJobConfig) (*TuningJob, error) {
	if dataset == nil {
		return nil, invalidConfigf("tuning dataset must not be nil")
	}
	if cfg == nil {
		cfg = &CreateTuningJobConfig{}
	}

	if s.client.d.backend == BackendVertexAI {
		return s.tuneVertex(ctx, baseModel, dataset, cfg)
	}
	return s.tuneGemini(ctx, baseModel, dataset, cfg)
}

func (s *Tunings) tuneGemini(ctx context.Context, baseModel string, dataset *TuningDataset, cfg *CreateTuningJobConfig) (*TuningJob, error) {
	if dataset.GCSURI != "" || dataset.VertexDataset != "" {
		return nil, invalidConfigf("gcs and dataset-resource tuning data are only available on the Vertex backend")
	}
	if len(dataset.Examples) == 0 {
		return nil, invalidConfigf("tuning on the Gemini API requires inline examples")
	}
	if cfg.LearningRateMultiplier != nil || cfg.AdapterSize != "" || cfg.Method != "" {
		return nil, invalidConfigf("learningRateMultiplier, adapterSize and method are only available on the Vertex backend")
	}

	hyper := map[string]any{}
	if cfg.EpochCount != nil {
		hyper["epochCount"] = *cfg.EpochCount
	}
	if cfg.BatchSize != nil {
		hyper["batchSize"] = *cfg.BatchSize
	}
	if cfg.LearningRate != nil {
		hyper["learningRate"] = *cfg.LearningRate
	}

	task := map[string]any{
		"trainingData": map[string]any{
			"examples": map[string]any{"examples": dataset.Examples},
		},
	}
	if len(hyper) > 0 {
		task["hyperparameters"] = hyper
	}

	body := map[string]any{
		"displayName": cfg.DisplayName,
		"baseModel":   s.client.d.modelPath(baseModel),
		"tuningTask":  task,
	}

	data, err := s.client.tr.PostJSON(ctx, "tunedModels", nil, body, s.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}

	// Creation answers with an Operation named after the job.
	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, &ParseError{Message: "could not decode tuning response", Err: err}
	}
	if op.Name != "" {
		return &TuningJob{Name: op.Name}, nil
	}
	return decodeTuningJob(data)
}

func (s *Tunings) tuneVertex(ctx context.Context, baseModel string, dataset *TuningDataset, cfg *CreateTuningJobConfig) (*TuningJob, error) {
	if len(dataset.Examples) > 0 {
		return nil, invalidConfigf("inline tuning examples are only available on the Gemini API backend")
	}
	if dataset.GCSURI == "" && dataset.VertexDataset == "" {
		return nil, invalidConfigf("tuning on Vertex requires a gcs uri or dataset resource")
	}
	if cfg.BatchSize != nil || cfg.LearningRate != nil {
		return nil, invalidConfigf("batchSize and learningRate are only available on the Gemini API backend")
	}

	hyper := map[string]any{}
	if cfg.EpochCount != nil {
		hyper["epochCount"] = *cfg.EpochCount
	}
	if cfg.LearningRateMultiplier != nil {
		hyper["learningRateMultiplier"] = *cfg.LearningRateMultiplier
	}
	if cfg.AdapterSize != "" {
		hyper["adapterSize"] = cfg.AdapterSize
	}

	spec := map[string]any{}
	if dataset.GCSURI != "" {
		spec["trainingDatasetUri"] = dataset.GCSURI
	} else {
		spec["trainingDataset"] = dataset.VertexDataset
	}
	if len(hyper) > 0 {
		spec["hyperParameters"] = hyper
	}

	// The spec key switches with the tuning method.
	specKey := "supervisedTuningSpec"
	if cfg.Method == TuningMethodPreference {
		specKey = "preferenceOptimizationSpec"
	}

	body := map[string]any{
		"baseModel":             baseModel,
		"tunedModelDisplayName": cfg.DisplayName,
		specKey:                 spec,
	}

	path := s.client.d.resourcePath("tuningJobs")
	data, err := s.client.tr.PostJSON(ctx, path, nil, body, s.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}
	return decodeTuningJob(data)
}

// Get fetches a tuning job by bare id or qualified name.
func (s *Tunings) Get(ctx context.Context, name string, opts *HTTPOptions) (*TuningJob, error) {
	canonical, err := s.tuningName(name)
	if err != nil {
		return nil, err
	}

	data, err := s.client.tr.GetJSON(ctx, canonical, nil, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}
	return decodeTuningJob(data)
}

// Cancel requests cancellation of a running tuning job. Vertex only.
func (s *Tunings) Cancel(ctx context.Context, name string, opts *HTTPOptions) error {
	if err := s.client.requireVertex("Tunings.Cancel"); err != nil {
		return err
	}
	canonical, err := s.tuningName(name)
	if err != nil {
		return err
	}
	_, err = s.client.tr.PostJSON(ctx, canonical+":cancel", nil, struct{}{}, s.client.callOptions(opts))
	return err
}

// ListTuningJobsConfig tunes a tuning-job listing.
type ListTuningJobsConfig struct {
	PageSize  int32
	PageToken string

	HTTPOptions *HTTPOptions
}

// ListTuningJobsResponse is one page of tuning jobs.
type ListTuningJobsResponse struct {
	TuningJobs    []*TuningJob `json:"tuningJobs,omitempty"`
	TunedModels   []*TuningJob `json:"tunedModels,omitempty"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
}

// Jobs returns the job list regardless of dialect spelling.
func (r *ListTuningJobsResponse) Jobs() []*TuningJob {
	if len(r.TuningJobs) > 0 {
		return r.TuningJobs
	}
	return r.TunedModels
}

// List returns one page of tuning jobs.
func (s *Tunings) List(ctx context.Context, cfg *ListTuningJobsConfig) (*ListTuningJobsResponse, error) {
	query := url.Values{}
	var opts *HTTPOptions
	if cfg != nil {
		addPageParams(query, cfg.PageSize, cfg.PageToken)
		opts = cfg.HTTPOptions
	}

	path := s.client.d.resourcePath(s.tuningCollection())
	data, err := s.client.tr.GetJSON(ctx, path, query, s.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var resp ListTuningJobsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ParseError{Message: "could not decode tuning listing", Err: err}
	}
	return &resp, nil
}

func (s *Tunings) tuningName(name string) (string, error) {
	canonical, err := normalizeResourceName(name, s.tuningCollection())
	if err != nil {
		return "", err
	}
	return s.client.d.resourcePath(canonical), nil
}

func decodeTuningJob(data []byte) (*TuningJob, error) {
	var job TuningJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, &ParseError{Message: "could not decode tuning job", Err: err}
	}
	return &job, nil
}
