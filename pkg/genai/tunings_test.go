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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTuningsTune_Gemini(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(`{"name":"tunedModels/sentiment-1/operations/op-1"}`))
	}))
	defer server.Close()

	epochs := int32(5)
	c := newTestClient(t, server.URL)
	job, err := c.Tunings.Tune(context.Background(), "gemini-2.0-flash",
		&TuningDataset{Examples: []*TuningExample{{TextInput: "great", Output: "positive"}}},
		&CreateTuningJobConfig{DisplayName: "sentiment", EpochCount: &epochs})
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/tunedModels", gotPath)
	assert.Equal(t, "models/gemini-2.0-flash", gotBody["baseModel"])
	task := gotBody["tuningTask"].(map[string]any)
	hyper := task["hyperparameters"].(map[string]any)
	assert.Equal(t, float64(5), hyper["epochCount"])
	examples := task["trainingData"].(map[string]any)["examples"].(map[string]any)["examples"].([]any)
	require.Len(t, examples, 1)
	assert.Equal(t, "great", examples[0].(map[string]any)["textInput"])

	assert.Equal(t, "tunedModels/sentiment-1/operations/op-1", job.Name)
}

func TestTuningsTune_Vertex(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(`{"name":"projects/proj/locations/us-central1/tuningJobs/9","state":"JOB_STATE_PENDING"}`))
	}))
	defer server.Close()

	c := newVertexTestClient(t, server.URL)
	job, err := c.Tunings.Tune(context.Background(), "gemini-2.0-flash",
		&TuningDataset{GCSURI: "gs://bucket/train.jsonl"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "/v1beta1/projects/proj/locations/us-central1/tuningJobs", gotPath)
	spec := gotBody["supervisedTuningSpec"].(map[string]any)
	assert.Equal(t, "gs://bucket/train.jsonl", spec["trainingDatasetUri"])
	assert.Equal(t, JobStatePending, job.State)
}

func TestTuningsTune_PreferenceSpecKey(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.Write([]byte(`{"name":"tuningJobs/9"}`))
	}))
	defer server.Close()

	c := newVertexTestClient(t, server.URL)
	_, err := c.Tunings.Tune(context.Background(), "m",
		&TuningDataset{GCSURI: "gs://bucket/train.jsonl"},
		&CreateTuningJobConfig{Method: TuningMethodPreference})
	require.NoError(t, err)

	assert.Contains(t, gotBody, "preferenceOptimizationSpec")
	assert.NotContains(t, gotBody, "supervisedTuningSpec")
}

func TestTuningsTune_DialectValidation(t *testing.T) {
	gemini := newTestClient(t, "https://unused.test")
	vertex := newVertexTestClient(t, "https://unused.test")
	ctx := context.Background()

	lr := 0.001
	tests := []struct {
		name string
		run  func() error
	}{
		{"nil dataset", func() error {
			_, err := gemini.Tunings.Tune(ctx, "m", nil, nil)
			return err
		}},
		{"gemini requires examples", func() error {
			_, err := gemini.Tunings.Tune(ctx, "m", &TuningDataset{}, nil)
			return err
		}},
		{"gcs on gemini", func() error {
			_, err := gemini.Tunings.Tune(ctx, "m", &TuningDataset{GCSURI: "gs://b/t"}, nil)
			return err
		}},
		{"vertex hyperparameters on gemini", func() error {
			_, err := gemini.Tunings.Tune(ctx, "m",
				&TuningDataset{Examples: []*TuningExample{{TextInput: "a", Output: "b"}}},
				&CreateTuningJobConfig{AdapterSize: "ADAPTER_SIZE_FOUR"})
			return err
		}},
		{"inline examples on vertex", func() error {
			_, err := vertex.Tunings.Tune(ctx, "m",
				&TuningDataset{Examples: []*TuningExample{{TextInput: "a", Output: "b"}}}, nil)
			return err
		}},
		{"gemini hyperparameters on vertex", func() error {
			_, err := vertex.Tunings.Tune(ctx, "m",
				&TuningDataset{GCSURI: "gs://b/t"},
				&CreateTuningJobConfig{LearningRate: &lr})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.IsType(t, &InvalidConfigError{}, err)
		})
	}
}

func TestTuningsCancel_VertexOnly(t *testing.T) {
	c := newTestClient(t, "https://unused.test")

	err := c.Tunings.Cancel(context.Background(), "job-1", nil)
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)
}

func TestTuningsGetAndList(t *testing.T) {
	var gotPaths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		if r.URL.Path == "/v1beta/tunedModels" {
			w.Write([]byte(`{"tunedModels":[{"name":"tunedModels/s1"}]}`))
			return
		}
		w.Write([]byte(`{"name":"tunedModels/s1","state":"JOB_STATE_SUCCEEDED","tunedModel":"tunedModels/s1"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx := context.Background()

	job, err := c.Tunings.Get(ctx, "s1", nil)
	require.NoError(t, err)
	assert.Equal(t, JobStateSucceeded, job.State)

	resp, err := c.Tunings.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, resp.Jobs(), 1)
	assert.Equal(t, "tunedModels/s1", resp.Jobs()[0].Name)

	assert.Equal(t, []string{"/v1beta/tunedModels/s1", "/v1beta/tunedModels"}, gotPaths)
}
