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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGenerateRequest_Temperature(t *testing.T) {
	bad := 3.0
	good := 1.5

	err := validateGenerateRequest("gemini-2.0-flash-thinking", Text("x"),
		&GenerateContentConfig{Temperature: &bad})
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)

	assert.NoError(t, validateGenerateRequest("gemini-2.0-flash-thinking", Text("x"),
		&GenerateContentConfig{Temperature: &good}))

	// Non-thinking models are not range checked here.
	assert.NoError(t, validateGenerateRequest("gemini-2.0-flash", Text("x"),
		&GenerateContentConfig{Temperature: &bad}))
}

func TestValidateGenerateRequest_ThoughtSignature(t *testing.T) {
	modelTurn := &Content{
		Role:  RoleModel,
		Parts: []*Part{NewPartFromFunctionCall("lookup", nil)},
	}
	contents := []*Content{Text("q")[0], modelTurn}

	err := validateGenerateRequest("gemini-3-pro-preview", contents, nil)
	require.Error(t, err)

	var sigErr *MissingThoughtSignatureError
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, "gemini-3-pro-preview", sigErr.Model)

	// A signature anywhere in the turn satisfies the rule.
	modelTurn.Parts = append(modelTurn.Parts, &Part{ThoughtSignature: []byte("sig")})
	assert.NoError(t, validateGenerateRequest("gemini-3-pro-preview", contents, nil))

	// Non-thinking models do not require signatures.
	modelTurn.Parts = modelTurn.Parts[:1]
	assert.NoError(t, validateGenerateRequest("gemini-2.0-flash", contents, nil))
}

func TestValidateGenerateRequest_FunctionResponseMedia(t *testing.T) {
	contents := []*Content{{
		Role: RoleUser,
		Parts: []*Part{{
			FunctionResponse: &FunctionResponse{
				Name:  "camera",
				Parts: []*FunctionResponsePart{{InlineData: &Blob{MIMEType: "image/png"}}},
			},
		}},
	}}

	err := validateGenerateRequest("gemini-2.0-flash", contents, nil)
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)

	assert.NoError(t, validateGenerateRequest("gemini-3-flash", contents, nil))
}

func TestValidateGenerateRequest_ImageWithCodeExecution(t *testing.T) {
	cfg := &GenerateContentConfig{
		Tools: []*Tool{{CodeExecution: &CodeExecution{}}},
	}
	image := []*Content{{
		Role:  RoleUser,
		Parts: []*Part{NewPartFromBytes([]byte{1}, "image/png")},
	}}

	err := validateGenerateRequest("gemini-2.0-flash", image, cfg)
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)

	// Text input with code execution is fine.
	assert.NoError(t, validateGenerateRequest("gemini-2.0-flash", Text("x"), cfg))

	// Image input without code execution is fine.
	assert.NoError(t, validateGenerateRequest("gemini-2.0-flash", image, nil))
}

func TestValidateGenerateRequest_ToolCapabilityCount(t *testing.T) {
	cfg := &GenerateContentConfig{
		Tools: []*Tool{{
			CodeExecution: &CodeExecution{},
			GoogleSearch:  &GoogleSearch{},
		}},
	}

	err := validateGenerateRequest("gemini-2.0-flash", Text("x"), cfg)
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)
}

func TestValidateGenerateRequest_SafetyAndModelArmorExclusive(t *testing.T) {
	cfg := &GenerateContentConfig{
		SafetySettings: []*SafetySetting{{
			Category:  HarmCategoryHarassment,
			Threshold: HarmBlockOnlyHigh,
		}},
		ModelArmorConfig: &ModelArmorConfig{PromptTemplateName: "tmpl"},
	}

	err := validateGenerateRequest("gemini-2.0-flash", Text("x"), cfg)
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)
}

func TestValidateGenerateRequest_SchemaPropertyOrdering(t *testing.T) {
	cfg := &GenerateContentConfig{
		ResponseSchema: &Schema{
			Type:             TypeObject,
			Properties:       map[string]*Schema{"a": {Type: TypeString}},
			PropertyOrdering: []string{"a", "missing"},
		},
	}

	err := validateGenerateRequest("gemini-2.0-flash", Text("x"), cfg)
	require.Error(t, err)
	assert.IsType(t, &InvalidConfigError{}, err)
}
