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

// Type is the JSON-schema subset type of a Schema node.
type Type string

const (
	TypeString  Type = "STRING"
	TypeNumber  Type = "NUMBER"
	TypeInteger Type = "INTEGER"
	TypeBoolean Type = "BOOLEAN"
	TypeArray   Type = "ARRAY"
	TypeObject  Type = "OBJECT"
	TypeNull    Type = "NULL"
)

// Schema is the OpenAPI-subset schema used for function parameters,
// responses and structured output. Items and AnyOf nest further
// schemas; every name in PropertyOrdering must appear in Properties.
type Schema struct {
	Type             Type               `json:"type,omitempty"`
	Format           string             `json:"format,omitempty"`
	Title            string             `json:"title,omitempty"`
	Description      string             `json:"description,omitempty"`
	Nullable         *bool              `json:"nullable,omitempty"`
	Enum             []string           `json:"enum,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Required         []string           `json:"required,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	AnyOf            []*Schema          `json:"anyOf,omitempty"`
	Minimum          *float64           `json:"minimum,omitempty"`
	Maximum          *float64           `json:"maximum,omitempty"`
	MinLength        *int64             `json:"minLength,omitempty,string"`
	MaxLength        *int64             `json:"maxLength,omitempty,string"`
	MinItems         *int64             `json:"minItems,omitempty,string"`
	MaxItems         *int64             `json:"maxItems,omitempty,string"`
	MinProperties    *int64             `json:"minProperties,omitempty,string"`
	MaxProperties    *int64             `json:"maxProperties,omitempty,string"`
	Pattern          string             `json:"pattern,omitempty"`
	Default          any                `json:"default,omitempty"`
	Example          any                `json:"example,omitempty"`
}

// validate checks the structural invariants of a schema tree.
func (s *Schema) validate() error {
	if s == nil {
		return nil
	}

	for _, name := range s.PropertyOrdering {
		if _, ok := s.Properties[name]; !ok {
			return invalidConfigf("propertyOrdering names %q, which is not in properties", name)
		}
	}

	for _, child := range s.Properties {
		if err := child.validate(); err != nil {
			return err
		}
	}
	if err := s.Items.validate(); err != nil {
		return err
	}
	for _, child := range s.AnyOf {
		if err := child.validate(); err != nil {
			return err
		}
	}

	return nil
}
