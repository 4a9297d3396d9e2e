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

// Roles carried by Content. The function role is used for tool
// responses fed back into a conversation.
const (
	RoleUser     = "user"
	RoleModel    = "model"
	RoleFunction = "function"
)

// Content is an ordered sequence of parts with an optional role. Every
// transmitted Content carries at least one part.
type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts,omitempty"`
}

// Part is a tagged variant: exactly one of the kind fields below is
// populated. Thought, ThoughtSignature, VideoMetadata and
// MediaResolution are out-of-band attributes that may accompany any
// kind.
type Part struct {
	Text                string               `json:"text,omitempty"`
	InlineData          *Blob                `json:"inlineData,omitempty"`
	FileData            *FileData            `json:"fileData,omitempty"`
	FunctionCall        *FunctionCall        `json:"functionCall,omitempty"`
	FunctionResponse    *FunctionResponse    `json:"functionResponse,omitempty"`
	ExecutableCode      *ExecutableCode      `json:"executableCode,omitempty"`
	CodeExecutionResult *CodeExecutionResult `json:"codeExecutionResult,omitempty"`

	Thought          bool            `json:"thought,omitempty"`
	ThoughtSignature []byte          `json:"thoughtSignature,omitempty"`
	VideoMetadata    *VideoMetadata  `json:"videoMetadata,omitempty"`
	MediaResolution  MediaResolution `json:"mediaResolution,omitempty"`
}

// kindCount returns how many variant fields are populated. A valid Part
// has exactly one, except that a bare text part with empty text is
// tolerated on parse.
func (p *Part) kindCount() int {
	n := 0
	if p.Text != "" {
		n++
	}
	if p.InlineData != nil {
		n++
	}
	if p.FileData != nil {
		n++
	}
	if p.FunctionCall != nil {
		n++
	}
	if p.FunctionResponse != nil {
		n++
	}
	if p.ExecutableCode != nil {
		n++
	}
	if p.CodeExecutionResult != nil {
		n++
	}
	return n
}

// Blob is raw bytes with a MIME tag. Data wires as base64.
type Blob struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// FileData references a file by URI.
type FileData struct {
	FileURI  string `json:"fileUri,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

// FunctionCall is a model-requested tool invocation.
type FunctionCall struct {
	ID           string         `json:"id,omitempty"`
	Name         string         `json:"name,omitempty"`
	Args         map[string]any `json:"args,omitempty"`
	PartialArgs  string         `json:"partialArgs,omitempty"`
	WillContinue *bool          `json:"willContinue,omitempty"`
}

// FunctionResponseScheduling controls when a streamed function response
// is considered by the model.
type FunctionResponseScheduling string

const (
	SchedulingInterrupt FunctionResponseScheduling = "INTERRUPT"
	SchedulingWhenIdle  FunctionResponseScheduling = "WHEN_IDLE"
	SchedulingSilent    FunctionResponseScheduling = "SILENT"
)

// FunctionResponse carries a tool result back to the model. Parts may
// carry inline or by-reference media, which only a documented subset of
// model families accepts.
type FunctionResponse struct {
	ID           string                     `json:"id,omitempty"`
	Name         string                     `json:"name,omitempty"`
	Response     map[string]any             `json:"response,omitempty"`
	Parts        []*FunctionResponsePart    `json:"parts,omitempty"`
	WillContinue *bool                      `json:"willContinue,omitempty"`
	Scheduling   FunctionResponseScheduling `json:"scheduling,omitempty"`
}

// FunctionResponsePart is media attached to a function response.
type FunctionResponsePart struct {
	InlineData *Blob     `json:"inlineData,omitempty"`
	FileData   *FileData `json:"fileData,omitempty"`
}

// Language of executable code.
type Language string

const (
	LanguagePython Language = "PYTHON"
)

// ExecutableCode is model-emitted code for the code-execution tool.
type ExecutableCode struct {
	Code     string   `json:"code,omitempty"`
	Language Language `json:"language,omitempty"`
}

// Outcome of a code execution.
type Outcome string

const (
	OutcomeOK               Outcome = "OUTCOME_OK"
	OutcomeFailed           Outcome = "OUTCOME_FAILED"
	OutcomeDeadlineExceeded Outcome = "OUTCOME_DEADLINE_EXCEEDED"
)

// CodeExecutionResult is the outcome of running ExecutableCode.
type CodeExecutionResult struct {
	Outcome Outcome `json:"outcome,omitempty"`
	Output  string  `json:"output,omitempty"`
}

// VideoMetadata selects a time window of a video part.
type VideoMetadata struct {
	StartOffset string  `json:"startOffset,omitempty"`
	EndOffset   string  `json:"endOffset,omitempty"`
	FPS         float64 `json:"fps,omitempty"`
}

// MediaResolution controls per-part media token budget.
type MediaResolution string

const (
	MediaResolutionLow    MediaResolution = "MEDIA_RESOLUTION_LOW"
	MediaResolutionMedium MediaResolution = "MEDIA_RESOLUTION_MEDIUM"
	MediaResolutionHigh   MediaResolution = "MEDIA_RESOLUTION_HIGH"
)

// NewPartFromText returns a text part.
func NewPartFromText(text string) *Part {
	return &Part{Text: text}
}

// NewPartFromBytes returns an inline-data part.
func NewPartFromBytes(data []byte, mimeType string) *Part {
	return &Part{InlineData: &Blob{MIMEType: mimeType, Data: data}}
}

// NewPartFromURI returns a by-reference file part.
func NewPartFromURI(fileURI, mimeType string) *Part {
	return &Part{FileData: &FileData{FileURI: fileURI, MIMEType: mimeType}}
}

// NewPartFromFunctionCall returns a function-call part.
func NewPartFromFunctionCall(name string, args map[string]any) *Part {
	return &Part{FunctionCall: &FunctionCall{Name: name, Args: args}}
}

// NewPartFromFunctionResponse returns a function-response part.
func NewPartFromFunctionResponse(name string, response map[string]any) *Part {
	return &Part{FunctionResponse: &FunctionResponse{Name: name, Response: response}}
}

// NewContentFromParts assembles a Content.
func NewContentFromParts(role string, parts ...*Part) *Content {
	return &Content{Role: role, Parts: parts}
}

// Text builds a single-user-content slice from strings, the common
// shape for simple generate calls.
func Text(texts ...string) []*Content {
	parts := make([]*Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, NewPartFromText(t))
	}
	return []*Content{{Role: RoleUser, Parts: parts}}
}

// functionCalls extracts every function-call part of a content, in
// order.
func (c *Content) functionCalls() []*FunctionCall {
	if c == nil {
		return nil
	}
	var calls []*FunctionCall
	for _, p := range c.Parts {
		if p != nil && p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

// clone returns a shallow-part copy of the content; parts themselves
// are immutable by convention once handed to the SDK.
func (c *Content) clone() *Content {
	if c == nil {
		return nil
	}
	parts := make([]*Part, len(c.Parts))
	copy(parts, c.Parts)
	return &Content{Role: c.Role, Parts: parts}
}
