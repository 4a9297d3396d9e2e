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

import "github.com/kadirpekel/genai/pkg/httpclient"

// HarmCategory identifies a safety dimension.
type HarmCategory string

const (
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmCategoryCivicIntegrity   HarmCategory = "HARM_CATEGORY_CIVIC_INTEGRITY"
)

// HarmBlockThreshold sets the blocking threshold of a safety setting.
type HarmBlockThreshold string

const (
	HarmBlockLowAndAbove    HarmBlockThreshold = "BLOCK_LOW_AND_ABOVE"
	HarmBlockMediumAndAbove HarmBlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	HarmBlockOnlyHigh       HarmBlockThreshold = "BLOCK_ONLY_HIGH"
	HarmBlockNone           HarmBlockThreshold = "BLOCK_NONE"
	HarmBlockOff            HarmBlockThreshold = "OFF"
)

// SafetySetting adjusts one safety dimension for a request.
type SafetySetting struct {
	Category  HarmCategory       `json:"category,omitempty"`
	Threshold HarmBlockThreshold `json:"threshold,omitempty"`
}

// ModelArmorConfig applies Model Armor template screening. Mutually
// exclusive with SafetySettings.
type ModelArmorConfig struct {
	PromptTemplateName   string `json:"promptTemplateName,omitempty"`
	ResponseTemplateName string `json:"responseTemplateName,omitempty"`
}

// ThinkingConfig controls thought emission for thinking models.
type ThinkingConfig struct {
	IncludeThoughts bool   `json:"includeThoughts,omitempty"`
	ThinkingBudget  *int32 `json:"thinkingBudget,omitempty"`
}

// SpeechConfig selects the voice for audio output.
type SpeechConfig struct {
	VoiceConfig  *VoiceConfig `json:"voiceConfig,omitempty"`
	LanguageCode string       `json:"languageCode,omitempty"`
}

// VoiceConfig wraps a prebuilt voice selection.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// PrebuiltVoiceConfig names a prebuilt voice.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName,omitempty"`
}

// AutomaticFunctionCallingConfig configures the SDK-side AFC driver.
// It is never transmitted to the backend.
type AutomaticFunctionCallingConfig struct {
	// Disable turns the driver off even when callable tools are present.
	Disable bool `json:"-"`
	// MaxRemoteCalls bounds the number of generate calls issued by one
	// AFC invocation. Zero means the default of 10; negative disables.
	MaxRemoteCalls int `json:"-"`
	// IgnoreCallHistory omits the accumulated call history from the
	// final response.
	IgnoreCallHistory bool `json:"-"`
}

const defaultMaxRemoteCalls = 10

// remoteCallBudget resolves the effective AFC budget.
func (c *AutomaticFunctionCallingConfig) remoteCallBudget() int {
	if c == nil || c.MaxRemoteCalls == 0 {
		return defaultMaxRemoteCalls
	}
	if c.MaxRemoteCalls < 0 {
		return 0
	}
	return c.MaxRemoteCalls
}

func (c *AutomaticFunctionCallingConfig) disabled() bool {
	return c != nil && c.Disable
}

// GenerateContentConfig collects every per-request generation knob.
// SystemInstruction, Tools and safety travel inside the request body;
// HTTPOptions and AutomaticFunctionCalling are SDK-local.
type GenerateContentConfig struct {
	SystemInstruction     *Content        `json:"-"`
	Temperature           *float64        `json:"temperature,omitempty"`
	TopP                  *float64        `json:"topP,omitempty"`
	TopK                  *float64        `json:"topK,omitempty"`
	CandidateCount        int32           `json:"candidateCount,omitempty"`
	MaxOutputTokens       int32           `json:"maxOutputTokens,omitempty"`
	StopSequences         []string        `json:"stopSequences,omitempty"`
	ResponseLogprobs      bool            `json:"responseLogprobs,omitempty"`
	Logprobs              *int32          `json:"logprobs,omitempty"`
	PresencePenalty       *float64        `json:"presencePenalty,omitempty"`
	FrequencyPenalty      *float64        `json:"frequencyPenalty,omitempty"`
	Seed                  *int32          `json:"seed,omitempty"`
	ResponseMIMEType      string          `json:"responseMimeType,omitempty"`
	ResponseSchema        *Schema         `json:"responseSchema,omitempty"`
	ResponseModalities    []string        `json:"responseModalities,omitempty"`
	MediaResolution       MediaResolution `json:"mediaResolution,omitempty"`
	SpeechConfig          *SpeechConfig   `json:"speechConfig,omitempty"`
	ThinkingConfig        *ThinkingConfig `json:"thinkingConfig,omitempty"`
	AudioTimestamp        bool            `json:"audioTimestamp,omitempty"`
	EnableAffectiveDialog *bool           `json:"enableAffectiveDialog,omitempty"`

	SafetySettings   []*SafetySetting  `json:"-"`
	ModelArmorConfig *ModelArmorConfig `json:"-"`
	Tools            []*Tool           `json:"-"`
	ToolConfig       *ToolConfig       `json:"-"`
	CachedContent    string            `json:"-"`
	Labels           map[string]string `json:"-"`

	// StreamFunctionCallArguments streams partial function-call
	// arguments. Incompatible with an enabled AFC driver.
	StreamFunctionCallArguments bool `json:"-"`

	AutomaticFunctionCalling *AutomaticFunctionCallingConfig `json:"-"`
	HTTPOptions              *httpclient.HTTPOptions         `json:"-"`
}

// generateContentRequest is the on-wire request body, shared by both
// dialects; dialect deltas are applied before marshalling.
type generateContentRequest struct {
	Contents          []*Content             `json:"contents"`
	SystemInstruction *Content               `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerateContentConfig `json:"generationConfig,omitempty"`
	SafetySettings    []*SafetySetting       `json:"safetySettings,omitempty"`
	ModelArmorConfig  *ModelArmorConfig      `json:"modelArmorConfig,omitempty"`
	Tools             []*Tool                `json:"tools,omitempty"`
	ToolConfig        *ToolConfig            `json:"toolConfig,omitempty"`
	CachedContent     string                 `json:"cachedContent,omitempty"`
	Labels            map[string]string      `json:"labels,omitempty"`
}

// isZero reports whether the embedded generation config would wire as
// an empty object.
func (c *GenerateContentConfig) isZero() bool {
	if c == nil {
		return true
	}
	return c.Temperature == nil && c.TopP == nil && c.TopK == nil &&
		c.CandidateCount == 0 && c.MaxOutputTokens == 0 &&
		len(c.StopSequences) == 0 && !c.ResponseLogprobs && c.Logprobs == nil &&
		c.PresencePenalty == nil && c.FrequencyPenalty == nil && c.Seed == nil &&
		c.ResponseMIMEType == "" && c.ResponseSchema == nil &&
		len(c.ResponseModalities) == 0 && c.MediaResolution == "" &&
		c.SpeechConfig == nil && c.ThinkingConfig == nil && !c.AudioTimestamp &&
		c.EnableAffectiveDialog == nil
}
