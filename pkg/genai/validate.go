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

import "strings"

// isThinkingModel reports whether a model identifier belongs to a
// family that emits thoughts and thought signatures.
func isThinkingModel(model string) bool {
	return strings.Contains(model, "3-pro-preview") ||
		strings.Contains(model, "thinking")
}

// supportsFunctionResponseMedia reports whether a model family accepts
// inline or file media inside function responses.
func supportsFunctionResponseMedia(model string) bool {
	return strings.Contains(model, "gemini-3") ||
		strings.Contains(model, "3-pro-preview")
}

// validateGenerateRequest runs every pre-flight rule before a generate
// request leaves the client.
func validateGenerateRequest(model string, contents []*Content, cfg *GenerateContentConfig) error {
	thinking := isThinkingModel(model)

	if thinking && cfg != nil && cfg.Temperature != nil {
		if t := *cfg.Temperature; t < 0 || t > 2 {
			return invalidConfigf("temperature %v is out of range [0, 2] for model %q", t, model)
		}
	}

	if thinking {
		if err := validateThoughtSignatures(model, contents); err != nil {
			return err
		}
	}

	for _, content := range contents {
		if content == nil {
			continue
		}
		for _, p := range content.Parts {
			if p == nil || p.FunctionResponse == nil {
				continue
			}
			if len(p.FunctionResponse.Parts) > 0 && !supportsFunctionResponseMedia(model) {
				return invalidConfigf("model %q does not accept media in function responses", model)
			}
		}
	}

	if cfg != nil && hasCodeExecution(cfg.Tools) && hasImageInput(contents) {
		return invalidConfigf("image inputs cannot be combined with the code execution tool")
	}

	if cfg != nil {
		if err := validateSchemas(cfg); err != nil {
			return err
		}
		for _, t := range cfg.Tools {
			if t != nil && t.capabilityCount() > 1 {
				return invalidConfigf("a tool must declare at most one capability")
			}
		}
		if len(cfg.SafetySettings) > 0 && cfg.ModelArmorConfig != nil {
			return invalidConfigf("safety settings and Model Armor are mutually exclusive")
		}
	}

	return nil
}

// validateThoughtSignatures enforces signature continuity: every model
// turn containing a function call must carry a signature on some part.
func validateThoughtSignatures(model string, contents []*Content) error {
	for _, content := range contents {
		if content == nil || content.Role != RoleModel {
			continue
		}

		hasCall := false
		hasSignature := false
		for _, p := range content.Parts {
			if p == nil {
				continue
			}
			if p.FunctionCall != nil {
				hasCall = true
			}
			if len(p.ThoughtSignature) > 0 {
				hasSignature = true
			}
		}
		if hasCall && !hasSignature {
			return &MissingThoughtSignatureError{Model: model}
		}
	}
	return nil
}

// hasImageInput reports whether any user content carries an inline or
// by-reference image part.
func hasImageInput(contents []*Content) bool {
	for _, content := range contents {
		if content == nil || content.Role == RoleModel {
			continue
		}
		for _, p := range content.Parts {
			if p == nil {
				continue
			}
			if p.InlineData != nil && strings.HasPrefix(p.InlineData.MIMEType, "image/") {
				return true
			}
			if p.FileData != nil && strings.HasPrefix(p.FileData.MIMEType, "image/") {
				return true
			}
		}
	}
	return false
}

func validateSchemas(cfg *GenerateContentConfig) error {
	if err := cfg.ResponseSchema.validate(); err != nil {
		return err
	}
	for _, t := range cfg.Tools {
		if t == nil {
			continue
		}
		for _, fd := range t.FunctionDeclarations {
			if fd == nil {
				continue
			}
			if err := fd.Parameters.validate(); err != nil {
				return err
			}
			if err := fd.Response.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
