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
)

// Image is a generated or caller-supplied image, inline or in GCS.
type Image struct {
	ImageBytes []byte `json:"bytesBase64Encoded,omitempty"`
	GCSURI     string `json:"gcsUri,omitempty"`
	MIMEType   string `json:"mimeType,omitempty"`
}

// GeneratedImage is one image prediction.
type GeneratedImage struct {
	Image             *Image `json:"image,omitempty"`
	RAIFilteredReason string `json:"raiFilteredReason,omitempty"`
	EnhancedPrompt    string `json:"enhancedPrompt,omitempty"`
}

// GenerateImagesConfig tunes image generation. OutputGCSURI,
// NegativePrompt, Seed, AddWatermark, EnhancePrompt, CompressionQuality
// and Labels are Vertex-only.
type GenerateImagesConfig struct {
	NumberOfImages     int32
	AspectRatio        string
	PersonGeneration   string
	SafetyFilterLevel  string
	IncludeRAIReason   bool
	Language           string
	OutputMIMEType     string
	OutputGCSURI       string
	NegativePrompt     string
	Seed               *int32
	AddWatermark       *bool
	EnhancePrompt      *bool
	CompressionQuality *int32
	Labels             map[string]string

	HTTPOptions *HTTPOptions
}

// GenerateImagesResponse collects the image predictions of one call.
type GenerateImagesResponse struct {
	GeneratedImages []*GeneratedImage `json:"generatedImages,omitempty"`
}

// vertexOnlyImageFields returns the name of the first populated
// Vertex-only field, or empty.
func (c *GenerateImagesConfig) vertexOnlyImageFields() string {
	switch {
	case c.OutputGCSURI != "":
		return "outputGcsUri"
	case c.NegativePrompt != "":
		return "negativePrompt"
	case c.Seed != nil:
		return "seed"
	case c.AddWatermark != nil:
		return "addWatermark"
	case c.EnhancePrompt != nil:
		return "enhancePrompt"
	case c.CompressionQuality != nil:
		return "compressionQuality"
	case len(c.Labels) > 0:
		return "labels"
	}
	return ""
}

func (c *GenerateImagesConfig) parameters() map[string]any {
	params := map[string]any{}
	if c.NumberOfImages > 0 {
		params["sampleCount"] = c.NumberOfImages
	}
	if c.AspectRatio != "" {
		params["aspectRatio"] = c.AspectRatio
	}
	if c.PersonGeneration != "" {
		params["personGeneration"] = c.PersonGeneration
	}
	if c.SafetyFilterLevel != "" {
		params["safetySetting"] = c.SafetyFilterLevel
	}
	if c.IncludeRAIReason {
		params["includeRaiReason"] = true
	}
	if c.Language != "" {
		// Image prompt language wires lowercase, unlike most enums.
		params["language"] = c.Language
	}
	if c.OutputMIMEType != "" {
		params["outputOptions"] = map[string]any{"mimeType": c.OutputMIMEType}
	}
	if c.OutputGCSURI != "" {
		params["storageUri"] = c.OutputGCSURI
	}
	if c.NegativePrompt != "" {
		params["negativePrompt"] = c.NegativePrompt
	}
	if c.Seed != nil {
		params["seed"] = *c.Seed
	}
	if c.AddWatermark != nil {
		params["addWatermark"] = *c.AddWatermark
	}
	if c.EnhancePrompt != nil {
		params["enhancePrompt"] = *c.EnhancePrompt
	}
	if c.CompressionQuality != nil {
		if out, ok := params["outputOptions"].(map[string]any); ok {
			out["compressionQuality"] = *c.CompressionQuality
		} else {
			params["outputOptions"] = map[string]any{"compressionQuality": *c.CompressionQuality}
		}
	}
	if len(c.Labels) > 0 {
		params["labels"] = c.Labels
	}
	return params
}

// GenerateImages generates images from a text prompt via the predict
// protocol. Available on both backends; Vertex-only knobs are rejected
// on the Gemini API.
func (m *Models) GenerateImages(ctx context.Context, model, prompt string, cfg *GenerateImagesConfig) (*GenerateImagesResponse, error) {
	if cfg == nil {
		cfg = &GenerateImagesConfig{}
	}
	if m.client.d.backend != BackendVertexAI {
		if field := cfg.vertexOnlyImageFields(); field != "" {
			return nil, invalidConfigf("%s is only available on the Vertex backend", field)
		}
	}

	body := map[string]any{
		"instances": []map[string]any{{"prompt": prompt}},
	}
	if params := cfg.parameters(); len(params) > 0 {
		body["parameters"] = params
	}

	return m.predictImages(ctx, model, body, cfg.HTTPOptions)
}

// EditImageConfig tunes image editing. Vertex only.
type EditImageConfig struct {
	EditMode       string
	NumberOfImages int32
	NegativePrompt string
	Seed           *int32
	GuidanceScale  *float64
	OutputMIMEType string
	OutputGCSURI   string

	HTTPOptions *HTTPOptions
}

// ReferenceImage is an input to image editing: a base, mask or style
// reference.
type ReferenceImage struct {
	ReferenceType   string         `json:"referenceType,omitempty"`
	ReferenceID     int32          `json:"referenceId,omitempty"`
	ReferenceImage  *Image         `json:"referenceImage,omitempty"`
	MaskImageConfig map[string]any `json:"maskImageConfig,omitempty"`
}

// EditImage edits an image guided by a prompt and reference images.
// Vertex only.
func (m *Models) EditImage(ctx context.Context, model, prompt string, refs []*ReferenceImage, cfg *EditImageConfig) (*GenerateImagesResponse, error) {
	if err := m.client.requireVertex("EditImage"); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &EditImageConfig{}
	}

	instance := map[string]any{"prompt": prompt}
	if len(refs) > 0 {
		instance["referenceImages"] = refs
	}

	params := map[string]any{}
	if cfg.EditMode != "" {
		params["editMode"] = cfg.EditMode
	}
	if cfg.NumberOfImages > 0 {
		params["sampleCount"] = cfg.NumberOfImages
	}
	if cfg.NegativePrompt != "" {
		params["negativePrompt"] = cfg.NegativePrompt
	}
	if cfg.Seed != nil {
		params["seed"] = *cfg.Seed
	}
	if cfg.GuidanceScale != nil {
		params["guidanceScale"] = *cfg.GuidanceScale
	}
	if cfg.OutputMIMEType != "" {
		params["outputOptions"] = map[string]any{"mimeType": cfg.OutputMIMEType}
	}
	if cfg.OutputGCSURI != "" {
		params["storageUri"] = cfg.OutputGCSURI
	}

	body := map[string]any{"instances": []map[string]any{instance}}
	if len(params) > 0 {
		body["parameters"] = params
	}
	return m.predictImages(ctx, model, body, cfg.HTTPOptions)
}

// UpscaleImageConfig tunes image upscaling. Vertex only.
type UpscaleImageConfig struct {
	OutputMIMEType string

	HTTPOptions *HTTPOptions
}

// UpscaleImage upscales an image by the given factor, e.g. "x2". Vertex
// only.
func (m *Models) UpscaleImage(ctx context.Context, model string, image *Image, upscaleFactor string, cfg *UpscaleImageConfig) (*GenerateImagesResponse, error) {
	if err := m.client.requireVertex("UpscaleImage"); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &UpscaleImageConfig{}
	}

	params := map[string]any{
		"mode":          "upscale",
		"upscaleConfig": map[string]any{"upscaleFactor": upscaleFactor},
	}
	if cfg.OutputMIMEType != "" {
		params["outputOptions"] = map[string]any{"mimeType": cfg.OutputMIMEType}
	}

	body := map[string]any{
		"instances":  []map[string]any{{"image": image}},
		"parameters": params,
	}
	return m.predictImages(ctx, model, body, cfg.HTTPOptions)
}

// RecontextImageConfig tunes product recontextualisation. Vertex only.
type RecontextImageConfig struct {
	NumberOfImages int32
	Seed           *int32
	OutputGCSURI   string

	HTTPOptions *HTTPOptions
}

// RecontextImage renders a product image in a new scene described by
// the prompt. Vertex only.
func (m *Models) RecontextImage(ctx context.Context, model, prompt string, productImages []*Image, cfg *RecontextImageConfig) (*GenerateImagesResponse, error) {
	if err := m.client.requireVertex("RecontextImage"); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &RecontextImageConfig{}
	}

	products := make([]map[string]any, 0, len(productImages))
	for _, img := range productImages {
		products = append(products, map[string]any{"productImage": img})
	}

	instance := map[string]any{"productImages": products}
	if prompt != "" {
		instance["prompt"] = prompt
	}

	params := map[string]any{}
	if cfg.NumberOfImages > 0 {
		params["sampleCount"] = cfg.NumberOfImages
	}
	if cfg.Seed != nil {
		params["seed"] = *cfg.Seed
	}
	if cfg.OutputGCSURI != "" {
		params["storageUri"] = cfg.OutputGCSURI
	}

	body := map[string]any{"instances": []map[string]any{instance}}
	if len(params) > 0 {
		body["parameters"] = params
	}
	return m.predictImages(ctx, model, body, cfg.HTTPOptions)
}

// SegmentImageConfig tunes image segmentation. Vertex only.
type SegmentImageConfig struct {
	Mode           string
	MaxPredictions int32

	HTTPOptions *HTTPOptions
}

// SegmentImageResponse carries segmentation masks.
type SegmentImageResponse struct {
	GeneratedMasks []*GeneratedImage `json:"generatedMasks,omitempty"`
}

// SegmentImage produces segmentation masks for an image. Vertex only.
func (m *Models) SegmentImage(ctx context.Context, model string, image *Image, cfg *SegmentImageConfig) (*SegmentImageResponse, error) {
	if err := m.client.requireVertex("SegmentImage"); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &SegmentImageConfig{}
	}

	params := map[string]any{}
	if cfg.Mode != "" {
		params["mode"] = cfg.Mode
	}
	if cfg.MaxPredictions > 0 {
		params["maxPredictions"] = cfg.MaxPredictions
	}

	body := map[string]any{"instances": []map[string]any{{"image": image}}}
	if len(params) > 0 {
		body["parameters"] = params
	}

	path := m.client.d.modelPath(model) + ":predict"
	data, err := m.client.tr.PostJSON(ctx, path, nil, body, m.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}

	var wire struct {
		Predictions []*GeneratedImage `json:"predictions"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ParseError{Message: "could not decode segmentation response", Err: err}
	}
	return &SegmentImageResponse{GeneratedMasks: wire.Predictions}, nil
}

func (m *Models) predictImages(ctx context.Context, model string, body map[string]any, opts *HTTPOptions) (*GenerateImagesResponse, error) {
	path := m.client.d.modelPath(model) + ":predict"
	data, err := m.client.tr.PostJSON(ctx, path, nil, body, m.client.callOptions(opts))
	if err != nil {
		return nil, err
	}

	var wire struct {
		Predictions []struct {
			BytesBase64Encoded []byte `json:"bytesBase64Encoded"`
			GCSURI             string `json:"gcsUri"`
			MIMEType           string `json:"mimeType"`
			RAIFilteredReason  string `json:"raiFilteredReason"`
			Prompt             string `json:"prompt"`
		} `json:"predictions"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ParseError{Message: "could not decode image response", Err: err}
	}

	resp := &GenerateImagesResponse{}
	for _, p := range wire.Predictions {
		gi := &GeneratedImage{
			RAIFilteredReason: p.RAIFilteredReason,
			EnhancedPrompt:    p.Prompt,
		}
		if len(p.BytesBase64Encoded) > 0 || p.GCSURI != "" {
			gi.Image = &Image{
				ImageBytes: p.BytesBase64Encoded,
				GCSURI:     p.GCSURI,
				MIMEType:   p.MIMEType,
			}
		}
		resp.GeneratedImages = append(resp.GeneratedImages, gi)
	}
	return resp, nil
}

// Video is a generated video, inline or in GCS.
type Video struct {
	URI        string `json:"uri,omitempty"`
	VideoBytes []byte `json:"encodedVideo,omitempty"`
	MIMEType   string `json:"encoding,omitempty"`
}

// GeneratedVideo is one video prediction.
type GeneratedVideo struct {
	Video *Video `json:"video,omitempty"`
}

// GenerateVideosResponse is the unwrapped result of a video generation
// operation.
type GenerateVideosResponse struct {
	GeneratedVideos       []*GeneratedVideo `json:"generatedSamples,omitempty"`
	RAIMediaFilteredCount int32             `json:"raiMediaFilteredCount,omitempty"`
}

// GenerateVideosConfig tunes video generation. OutputGCSURI, FPS,
// GenerateAudio, PubSubTopic, NegativePrompt and Seed are Vertex-only.
type GenerateVideosConfig struct {
	NumberOfVideos   int32
	DurationSeconds  *int32
	AspectRatio      string
	Resolution       string
	PersonGeneration string
	OutputGCSURI     string
	FPS              *int32
	GenerateAudio    *bool
	PubSubTopic      string
	NegativePrompt   string
	Seed             *int32

	HTTPOptions *HTTPOptions
}

func (c *GenerateVideosConfig) vertexOnlyVideoFields() string {
	switch {
	case c.OutputGCSURI != "":
		return "outputGcsUri"
	case c.FPS != nil:
		return "fps"
	case c.GenerateAudio != nil:
		return "generateAudio"
	case c.PubSubTopic != "":
		return "pubsubTopic"
	case c.NegativePrompt != "":
		return "negativePrompt"
	case c.Seed != nil:
		return "seed"
	}
	return ""
}

// GenerateVideos starts a long-running video generation and returns its
// Operation handle; poll it via the Operations service.
func (m *Models) GenerateVideos(ctx context.Context, model, prompt string, image *Image, cfg *GenerateVideosConfig) (*Operation, error) {
	if cfg == nil {
		cfg = &GenerateVideosConfig{}
	}
	if m.client.d.backend != BackendVertexAI {
		if field := cfg.vertexOnlyVideoFields(); field != "" {
			return nil, invalidConfigf("%s is only available on the Vertex backend", field)
		}
	}

	instance := map[string]any{}
	if prompt != "" {
		instance["prompt"] = prompt
	}
	if image != nil {
		instance["image"] = image
	}

	params := map[string]any{}
	if cfg.NumberOfVideos > 0 {
		params["sampleCount"] = cfg.NumberOfVideos
	}
	if cfg.DurationSeconds != nil {
		params["durationSeconds"] = *cfg.DurationSeconds
	}
	if cfg.AspectRatio != "" {
		params["aspectRatio"] = cfg.AspectRatio
	}
	if cfg.Resolution != "" {
		params["resolution"] = cfg.Resolution
	}
	if cfg.PersonGeneration != "" {
		params["personGeneration"] = cfg.PersonGeneration
	}
	if cfg.OutputGCSURI != "" {
		params["storageUri"] = cfg.OutputGCSURI
	}
	if cfg.FPS != nil {
		params["fps"] = *cfg.FPS
	}
	if cfg.GenerateAudio != nil {
		params["generateAudio"] = *cfg.GenerateAudio
	}
	if cfg.PubSubTopic != "" {
		params["pubsubTopic"] = cfg.PubSubTopic
	}
	if cfg.NegativePrompt != "" {
		params["negativePrompt"] = cfg.NegativePrompt
	}
	if cfg.Seed != nil {
		params["seed"] = *cfg.Seed
	}

	body := map[string]any{"instances": []map[string]any{instance}}
	if len(params) > 0 {
		body["parameters"] = params
	}

	path := m.client.d.modelPath(model) + ":predictLongRunning"
	data, err := m.client.tr.PostJSON(ctx, path, nil, body, m.client.callOptions(cfg.HTTPOptions))
	if err != nil {
		return nil, err
	}

	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, &ParseError{Message: "could not decode operation", Err: err}
	}
	return &op, nil
}
