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

import "fmt"

// ParseError reports a decoding or wire-contract violation: malformed
// JSON, a missing protocol header, or an unexpected upload status.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("parse: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidConfigError reports a pre-flight rule violation: a
// cross-dialect restriction, a missing required field, or conflicting
// options. It is raised before any request is issued.
type InvalidConfigError struct {
	Message string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", e.Message)
}

func invalidConfigf(format string, args ...any) *InvalidConfigError {
	return &InvalidConfigError{Message: fmt.Sprintf(format, args...)}
}

// MissingThoughtSignatureError reports a thinking-model conversation
// that continues a function-calling turn without echoing a thought
// signature.
type MissingThoughtSignatureError struct {
	Model string
}

func (e *MissingThoughtSignatureError) Error() string {
	return fmt.Sprintf("model %s requires a thought signature on function call turns; "+
		"echo the thoughtSignature returned by the model when continuing the conversation", e.Model)
}
