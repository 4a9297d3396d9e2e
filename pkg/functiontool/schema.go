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

package functiontool

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/kadirpekel/genai/pkg/genai"
)

// generateSchema reflects a parameter schema from a Go struct type.
//
// Supported tags:
//   - json:"name" - parameter name
//   - jsonschema:"required" - mark as required
//   - jsonschema:"description=..." - parameter description
//   - jsonschema:"default=..." - default value
//   - jsonschema:"enum=a|b" - allowed values
//   - jsonschema:"minimum=N,maximum=M" - numeric bounds
func generateSchema[T any]() (*genai.Schema, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	raw, err := json.Marshal(reflector.Reflect(new(T)))
	if err != nil {
		return nil, err
	}

	var node schemaNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	return node.toSchema()
}

// schemaNode is the JSON-schema subset the reflector emits.
type schemaNode struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Properties  map[string]*schemaNode `json:"properties"`
	Required    []string               `json:"required"`
	Items       *schemaNode            `json:"items"`
	Enum        []any                  `json:"enum"`
	Minimum     json.Number            `json:"minimum"`
	Maximum     json.Number            `json:"maximum"`
	Pattern     string                 `json:"pattern"`
	Default     any                    `json:"default"`
	Format      string                 `json:"format"`
}

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
	"null":    genai.TypeNull,
}

func (n *schemaNode) toSchema() (*genai.Schema, error) {
	if n == nil {
		return nil, nil
	}

	out := &genai.Schema{
		Description: n.Description,
		Required:    n.Required,
		Pattern:     n.Pattern,
		Default:     n.Default,
		Format:      n.Format,
	}

	if n.Type != "" {
		t, ok := schemaTypes[n.Type]
		if !ok {
			return nil, fmt.Errorf("unsupported schema type %q", n.Type)
		}
		out.Type = t
	}

	for _, v := range n.Enum {
		out.Enum = append(out.Enum, fmt.Sprintf("%v", v))
	}

	if n.Minimum != "" {
		min, err := n.Minimum.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid minimum %q: %w", n.Minimum, err)
		}
		out.Minimum = &min
	}
	if n.Maximum != "" {
		max, err := n.Maximum.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid maximum %q: %w", n.Maximum, err)
		}
		out.Maximum = &max
	}

	if len(n.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(n.Properties))
		for name, child := range n.Properties {
			converted, err := child.toSchema()
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			out.Properties[name] = converted
		}
	}

	if n.Items != nil {
		items, err := n.Items.toSchema()
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out.Items = items
	}

	return out, nil
}
