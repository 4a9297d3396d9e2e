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

// FunctionDeclaration names a callable function and describes its
// parameters with an OpenAPI-subset schema.
type FunctionDeclaration struct {
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
	Response    *Schema `json:"response,omitempty"`
}

// Tool describes one capability offered to the model. At most one
// capability field may be populated per Tool value.
type Tool struct {
	FunctionDeclarations []*FunctionDeclaration `json:"functionDeclarations,omitempty"`
	Retrieval            *Retrieval             `json:"retrieval,omitempty"`
	CodeExecution        *CodeExecution         `json:"codeExecution,omitempty"`
	URLContext           *URLContext            `json:"urlContext,omitempty"`
	ComputerUse          *ComputerUse           `json:"computerUse,omitempty"`
	GoogleSearch         *GoogleSearch          `json:"googleSearch,omitempty"`
	GoogleMaps           *GoogleMaps            `json:"googleMaps,omitempty"`
	FileSearch           *FileSearch            `json:"fileSearch,omitempty"`
}

// capabilityCount returns how many capability fields are set.
func (t *Tool) capabilityCount() int {
	n := 0
	if len(t.FunctionDeclarations) > 0 {
		n++
	}
	if t.Retrieval != nil {
		n++
	}
	if t.CodeExecution != nil {
		n++
	}
	if t.URLContext != nil {
		n++
	}
	if t.ComputerUse != nil {
		n++
	}
	if t.GoogleSearch != nil {
		n++
	}
	if t.GoogleMaps != nil {
		n++
	}
	if t.FileSearch != nil {
		n++
	}
	return n
}

// hasCodeExecution reports whether any tool enables code execution.
func hasCodeExecution(tools []*Tool) bool {
	for _, t := range tools {
		if t != nil && t.CodeExecution != nil {
			return true
		}
	}
	return false
}

// Retrieval grounds generation in an external corpus.
type Retrieval struct {
	VertexAISearch     *VertexAISearch `json:"vertexAiSearch,omitempty"`
	VertexRAGStore     *VertexRAGStore `json:"vertexRagStore,omitempty"`
	DisableAttribution *bool           `json:"disableAttribution,omitempty"`
	ExternalAPI        map[string]any  `json:"externalApi,omitempty"`
}

// VertexAISearch references a Vertex AI Search datastore.
type VertexAISearch struct {
	Datastore string `json:"datastore,omitempty"`
	Engine    string `json:"engine,omitempty"`
}

// VertexRAGStore references Vertex RAG corpora.
type VertexRAGStore struct {
	RAGCorpora              []string `json:"ragCorpora,omitempty"`
	SimilarityTopK          *int     `json:"similarityTopK,omitempty"`
	VectorDistanceThreshold *float64 `json:"vectorDistanceThreshold,omitempty"`
}

// CodeExecution enables the server-side code execution tool.
type CodeExecution struct{}

// URLContext lets the model fetch caller-supplied URLs.
type URLContext struct{}

// ComputerUse configures the computer-use tool.
type ComputerUse struct {
	Environment string `json:"environment,omitempty"`
}

// GoogleSearch enables search grounding.
type GoogleSearch struct {
	TimeRangeFilter map[string]any `json:"timeRangeFilter,omitempty"`
}

// GoogleMaps enables Maps grounding.
type GoogleMaps struct {
	EnableWidget bool `json:"enableWidget,omitempty"`
}

// FileSearch grounds generation in file search stores.
type FileSearch struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames,omitempty"`
}

// FunctionCallingMode controls how the model may call functions.
type FunctionCallingMode string

const (
	FunctionCallingAuto FunctionCallingMode = "AUTO"
	FunctionCallingAny  FunctionCallingMode = "ANY"
	FunctionCallingNone FunctionCallingMode = "NONE"
)

// FunctionCallingConfig constrains function calling.
type FunctionCallingConfig struct {
	Mode                 FunctionCallingMode `json:"mode,omitempty"`
	AllowedFunctionNames []string            `json:"allowedFunctionNames,omitempty"`
}

// ToolConfig applies across all tools in a request.
type ToolConfig struct {
	FunctionCallingConfig *FunctionCallingConfig `json:"functionCallingConfig,omitempty"`
}
