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
	"context"

	"github.com/google/uuid"
)

// CallableTool is a tool the SDK can execute on the model's behalf.
// Declarations announces the function names the tool owns; Run receives
// the batch of calls addressed to those names and returns one response
// per call.
type CallableTool interface {
	Declarations() []*FunctionDeclaration
	Run(ctx context.Context, calls []*FunctionCall) ([]*FunctionResponse, error)
}

// toolRegistry resolves function-call names to their owning tool.
type toolRegistry struct {
	owners []CallableTool
	byName map[string]int
}

func buildToolRegistry(tools []CallableTool) (*toolRegistry, error) {
	reg := &toolRegistry{
		owners: tools,
		byName: make(map[string]int),
	}
	for i, tool := range tools {
		for _, decl := range tool.Declarations() {
			if decl == nil || decl.Name == "" {
				return nil, invalidConfigf("callable tool %d declares an unnamed function", i)
			}
			if _, dup := reg.byName[decl.Name]; dup {
				return nil, invalidConfigf("duplicate function declaration %q across callable tools", decl.Name)
			}
			reg.byName[decl.Name] = i
		}
	}
	return reg, nil
}

// declarationTool merges every callable declaration into one Tool.
func (r *toolRegistry) declarationTool() *Tool {
	var decls []*FunctionDeclaration
	for _, tool := range r.owners {
		decls = append(decls, tool.Declarations()...)
	}
	return &Tool{FunctionDeclarations: decls}
}

// dispatch groups calls by owner, runs each owner once, and returns the
// responses in call order. An owner returning an empty batch yields
// (nil, false, nil), signalling the loop to stop.
func (r *toolRegistry) dispatch(ctx context.Context, calls []*FunctionCall) ([]*Part, bool, error) {
	groups := make(map[int][]*FunctionCall)
	var order []int
	for _, call := range calls {
		owner, ok := r.byName[call.Name]
		if !ok {
			return nil, false, invalidConfigf("model called undeclared function %q", call.Name)
		}
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		if _, seen := groups[owner]; !seen {
			order = append(order, owner)
		}
		groups[owner] = append(groups[owner], call)
	}

	var parts []*Part
	for _, owner := range order {
		responses, err := r.owners[owner].Run(ctx, groups[owner])
		if err != nil {
			return nil, false, err
		}
		if len(responses) == 0 {
			return nil, false, nil
		}
		for _, resp := range responses {
			parts = append(parts, &Part{FunctionResponse: resp})
		}
	}
	return parts, true, nil
}

// afcSetup validates the AFC entry conditions and produces the config
// whose Tools include the callable declarations.
func afcSetup(cfg *GenerateContentConfig, tools []CallableTool) (*GenerateContentConfig, *toolRegistry, error) {
	merged := &GenerateContentConfig{}
	if cfg != nil {
		clone := *cfg
		merged = &clone
	}

	if merged.StreamFunctionCallArguments && !merged.AutomaticFunctionCalling.disabled() {
		return nil, nil, invalidConfigf("streaming function-call arguments is incompatible with automatic function calling; disable one")
	}

	for _, t := range merged.Tools {
		if t != nil && len(t.FunctionDeclarations) > 0 {
			return nil, nil, invalidConfigf("plain function declarations cannot be mixed with callable tools")
		}
	}

	reg, err := buildToolRegistry(tools)
	if err != nil {
		return nil, nil, err
	}

	mergedTools := make([]*Tool, len(merged.Tools), len(merged.Tools)+1)
	copy(mergedTools, merged.Tools)
	merged.Tools = append(mergedTools, reg.declarationTool())
	return merged, reg, nil
}

// GenerateContentWithTools is GenerateContent plus the automatic
// function calling loop: function calls emitted by the model are
// executed via the callable tools and fed back until the model stops
// calling or the remote-call budget is exhausted.
func (m *Models) GenerateContentWithTools(ctx context.Context, model string, contents []*Content, cfg *GenerateContentConfig, tools []CallableTool) (*GenerateContentResponse, error) {
	if len(tools) == 0 {
		return m.GenerateContent(ctx, model, contents, cfg)
	}

	merged, reg, err := afcSetup(cfg, tools)
	if err != nil {
		return nil, err
	}

	afcCfg := merged.AutomaticFunctionCalling
	budget := afcCfg.remoteCallBudget()
	if afcCfg.disabled() || budget == 0 {
		return m.GenerateContent(ctx, model, contents, merged)
	}

	conversation := make([]*Content, len(contents))
	copy(conversation, contents)
	var history []*Content

	var resp *GenerateContentResponse
	for i := 0; i < budget; i++ {
		resp, err = m.GenerateContent(ctx, model, conversation, merged)
		if err != nil {
			return nil, err
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			break
		}

		parts, ok, err := reg.dispatch(ctx, calls)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		modelTurn := resp.Candidates[0].Content.clone()
		responseTurn := &Content{Role: RoleFunction, Parts: parts}
		conversation = append(conversation, modelTurn, responseTurn)
		if history == nil {
			history = append(history, contents...)
		}
		history = append(history, modelTurn, responseTurn)
	}

	if resp != nil && len(history) > 0 && (afcCfg == nil || !afcCfg.IgnoreCallHistory) {
		resp.AutomaticFunctionCallingHistory = history
	}
	return resp, nil
}

// GenerateContentStreamWithTools is the streaming form of the loop.
// Every server chunk is relayed as it arrives; after each stream ends,
// tool calls seen during it are executed and a synthetic chunk carrying
// the function responses is emitted before the next round begins.
func (m *Models) GenerateContentStreamWithTools(ctx context.Context, model string, contents []*Content, cfg *GenerateContentConfig, tools []CallableTool) (<-chan StreamChunk, error) {
	if len(tools) == 0 {
		return m.GenerateContentStream(ctx, model, contents, cfg)
	}

	merged, reg, err := afcSetup(cfg, tools)
	if err != nil {
		return nil, err
	}

	afcCfg := merged.AutomaticFunctionCalling
	budget := afcCfg.remoteCallBudget()
	if afcCfg.disabled() || budget == 0 {
		return m.GenerateContentStream(ctx, model, contents, merged)
	}

	out := make(chan StreamChunk, 2)
	go func() {
		defer close(out)

		conversation := make([]*Content, len(contents))
		copy(conversation, contents)

		for i := 0; i < budget; i++ {
			stream, err := m.GenerateContentStream(ctx, model, conversation, merged)
			if err != nil {
				emit(ctx, out, StreamChunk{Err: err})
				return
			}

			var calls []*FunctionCall
			var lastModelContent *Content
			failed := false
			for chunk := range stream {
				if !emit(ctx, out, chunk) {
					return
				}
				if chunk.Err != nil {
					failed = true
					break
				}
				for _, cand := range chunk.Response.Candidates {
					if cand == nil || cand.Content == nil {
						continue
					}
					lastModelContent = cand.Content
					calls = append(calls, cand.Content.functionCalls()...)
				}
			}
			if failed || len(calls) == 0 {
				return
			}

			parts, ok, err := reg.dispatch(ctx, calls)
			if err != nil {
				emit(ctx, out, StreamChunk{Err: err})
				return
			}
			if !ok {
				return
			}

			responseTurn := &Content{Role: RoleFunction, Parts: parts}
			synthetic := &GenerateContentResponse{
				Candidates: []*Candidate{{Content: responseTurn}},
			}
			if !emit(ctx, out, StreamChunk{Response: synthetic}) {
				return
			}

			if lastModelContent != nil {
				conversation = append(conversation, lastModelContent.clone())
			}
			conversation = append(conversation, responseTurn)
		}
	}()

	return out, nil
}
