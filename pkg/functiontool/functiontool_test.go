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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/genai/pkg/genai"
)

type weatherArgs struct {
	Location string `json:"location" jsonschema:"required,description=City name"`
	Unit     string `json:"unit,omitempty"`
	Days     int    `json:"days,omitempty"`
}

func weatherTool(t *testing.T) genai.CallableTool {
	t.Helper()

	tool, err := New(Config{Name: "get_weather", Description: "Look up the weather"},
		func(ctx context.Context, args weatherArgs) (map[string]any, error) {
			return map[string]any{"location": args.Location, "unit": args.Unit, "days": args.Days}, nil
		})
	require.NoError(t, err)
	return tool
}

func TestNew_ConfigValidation(t *testing.T) {
	fn := func(ctx context.Context, args weatherArgs) (map[string]any, error) { return nil, nil }

	_, err := New(Config{Description: "no name"}, fn)
	require.Error(t, err)

	_, err = New(Config{Name: "no_description"}, fn)
	require.Error(t, err)
}

func TestDeclarations(t *testing.T) {
	decls := weatherTool(t).Declarations()
	require.Len(t, decls, 1)

	decl := decls[0]
	assert.Equal(t, "get_weather", decl.Name)
	assert.Equal(t, "Look up the weather", decl.Description)

	schema := decl.Parameters
	require.NotNil(t, schema)
	assert.Equal(t, genai.TypeObject, schema.Type)
	require.Contains(t, schema.Properties, "location")
	require.Contains(t, schema.Properties, "unit")
	require.Contains(t, schema.Properties, "days")
	assert.Equal(t, genai.TypeString, schema.Properties["location"].Type)
	assert.Equal(t, "City name", schema.Properties["location"].Description)
	assert.Equal(t, genai.TypeInteger, schema.Properties["days"].Type)
	assert.Contains(t, schema.Required, "location")
	assert.NotContains(t, schema.Required, "unit")
}

func TestRun_DecodesArguments(t *testing.T) {
	tool := weatherTool(t)

	responses, err := tool.Run(context.Background(), []*genai.FunctionCall{{
		ID:   "call-1",
		Name: "get_weather",
		Args: map[string]any{"location": "Berlin", "unit": "celsius", "days": float64(3)},
	}})
	require.NoError(t, err)
	require.Len(t, responses, 1)

	resp := responses[0]
	assert.Equal(t, "call-1", resp.ID)
	assert.Equal(t, "get_weather", resp.Name)
	assert.Equal(t, "Berlin", resp.Response["location"])
	assert.Equal(t, 3, resp.Response["days"])
}

func TestRun_WeaklyTypedArguments(t *testing.T) {
	tool := weatherTool(t)

	// Models occasionally send numbers as strings.
	responses, err := tool.Run(context.Background(), []*genai.FunctionCall{{
		Name: "get_weather",
		Args: map[string]any{"location": "Oslo", "days": "5"},
	}})
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, 5, responses[0].Response["days"])
}

func TestRun_FunctionError(t *testing.T) {
	tool, err := New(Config{Name: "fails", Description: "always fails"},
		func(ctx context.Context, args weatherArgs) (map[string]any, error) {
			return nil, errors.New("backend unavailable")
		})
	require.NoError(t, err)

	_, err = tool.Run(context.Background(), []*genai.FunctionCall{{Name: "fails", Args: map[string]any{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")
}
