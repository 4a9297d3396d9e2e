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

// Package functiontool creates callable tools from typed Go functions.
// The parameter schema is generated from struct tags, and incoming
// call arguments are decoded into the typed struct before dispatch.
//
// Basic usage:
//
//	type WeatherArgs struct {
//	    City  string `json:"city" jsonschema:"required,description=City name"`
//	    Units string `json:"units,omitempty" jsonschema:"description=Temperature units,enum=celsius|fahrenheit"`
//	}
//
//	weather, err := functiontool.New(
//	    functiontool.Config{Name: "get_weather", Description: "Current weather for a city"},
//	    func(ctx context.Context, args WeatherArgs) (map[string]any, error) {
//	        return map[string]any{"temp": 22}, nil
//	    },
//	)
//
// For tools owning several functions, streaming output or internal
// state, implement genai.CallableTool directly.
package functiontool

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/genai/pkg/genai"
)

// Config names and describes a function tool.
type Config struct {
	// Name is the function name the model calls (required).
	Name string

	// Description tells the model when to use the tool (required).
	Description string
}

// New wraps a typed function as a callable tool. Args must be a struct
// whose json and jsonschema tags define the parameters.
func New[Args any](cfg Config, fn func(context.Context, Args) (map[string]any, error)) (genai.CallableTool, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("functiontool: tool name is required")
	}
	if cfg.Description == "" {
		return nil, fmt.Errorf("functiontool: tool description is required")
	}

	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("functiontool: could not generate schema for %s: %w", cfg.Name, err)
	}

	return &functionTool[Args]{config: cfg, fn: fn, schema: schema}, nil
}

type functionTool[Args any] struct {
	config Config
	fn     func(context.Context, Args) (map[string]any, error)
	schema *genai.Schema
}

// Declarations announces the single owned function.
func (t *functionTool[Args]) Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{{
		Name:        t.config.Name,
		Description: t.config.Description,
		Parameters:  t.schema,
	}}
}

// Run decodes each call's arguments and invokes the function.
func (t *functionTool[Args]) Run(ctx context.Context, calls []*genai.FunctionCall) ([]*genai.FunctionResponse, error) {
	responses := make([]*genai.FunctionResponse, 0, len(calls))
	for _, call := range calls {
		var args Args
		if err := decodeArgs(call.Args, &args); err != nil {
			return nil, fmt.Errorf("functiontool: invalid arguments for %s: %w", t.config.Name, err)
		}

		result, err := t.fn(ctx, args)
		if err != nil {
			return nil, err
		}

		responses = append(responses, &genai.FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: result,
		})
	}
	return responses, nil
}

// decodeArgs converts the loosely typed call arguments into the typed
// struct, honouring json tags and coercing numeric kinds.
func decodeArgs(args map[string]any, target any) error {
	if args == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

var _ genai.CallableTool = (*functionTool[struct{}])(nil)
