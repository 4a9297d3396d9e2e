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

// FinishReason explains why a candidate stopped.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "STOP"
	FinishReasonMaxTokens     FinishReason = "MAX_TOKENS"
	FinishReasonSafety        FinishReason = "SAFETY"
	FinishReasonRecitation    FinishReason = "RECITATION"
	FinishReasonMalformedCall FinishReason = "MALFORMED_FUNCTION_CALL"
	FinishReasonProhibited    FinishReason = "PROHIBITED_CONTENT"
	FinishReasonBlocklist     FinishReason = "BLOCKLIST"
	FinishReasonOther         FinishReason = "OTHER"
)

// HarmProbability grades a safety rating.
type HarmProbability string

const (
	HarmProbabilityNegligible HarmProbability = "NEGLIGIBLE"
	HarmProbabilityLow        HarmProbability = "LOW"
	HarmProbabilityMedium     HarmProbability = "MEDIUM"
	HarmProbabilityHigh       HarmProbability = "HIGH"
)

// SafetyRating is the per-category safety assessment of a candidate.
type SafetyRating struct {
	Category    HarmCategory    `json:"category,omitempty"`
	Probability HarmProbability `json:"probability,omitempty"`
	Blocked     bool            `json:"blocked,omitempty"`
}

// Citation credits a source for generated content.
type Citation struct {
	StartIndex int32  `json:"startIndex,omitempty"`
	EndIndex   int32  `json:"endIndex,omitempty"`
	URI        string `json:"uri,omitempty"`
	Title      string `json:"title,omitempty"`
	License    string `json:"license,omitempty"`
}

// CitationMetadata collects the citations of a candidate.
type CitationMetadata struct {
	Citations []*Citation `json:"citations,omitempty"`
	// CitationSources is the Gemini API spelling of the same list.
	CitationSources []*Citation `json:"citationSources,omitempty"`
}

// Sources returns the citation list regardless of dialect spelling.
func (m *CitationMetadata) Sources() []*Citation {
	if m == nil {
		return nil
	}
	if len(m.Citations) > 0 {
		return m.Citations
	}
	return m.CitationSources
}

// GroundingChunk is one retrieved grounding source.
type GroundingChunk struct {
	Web *GroundingChunkWeb `json:"web,omitempty"`
}

// GroundingChunkWeb is a web grounding source.
type GroundingChunkWeb struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GroundingMetadata describes retrieval grounding of a candidate.
type GroundingMetadata struct {
	WebSearchQueries []string          `json:"webSearchQueries,omitempty"`
	GroundingChunks  []*GroundingChunk `json:"groundingChunks,omitempty"`
	SearchEntryPoint map[string]any    `json:"searchEntryPoint,omitempty"`
}

// URLContextMetadata reports per-URL retrieval outcomes.
type URLContextMetadata struct {
	URLMetadata []*URLMetadata `json:"urlMetadata,omitempty"`
}

// URLMetadata is the retrieval outcome of one URL.
type URLMetadata struct {
	RetrievedURL       string `json:"retrievedUrl,omitempty"`
	URLRetrievalStatus string `json:"urlRetrievalStatus,omitempty"`
}

// LogprobsResult carries token log probabilities.
type LogprobsResult struct {
	TopCandidates    []map[string]any `json:"topCandidates,omitempty"`
	ChosenCandidates []map[string]any `json:"chosenCandidates,omitempty"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content            *Content            `json:"content,omitempty"`
	FinishReason       FinishReason        `json:"finishReason,omitempty"`
	FinishMessage      string              `json:"finishMessage,omitempty"`
	Index              int32               `json:"index,omitempty"`
	SafetyRatings      []*SafetyRating     `json:"safetyRatings,omitempty"`
	CitationMetadata   *CitationMetadata   `json:"citationMetadata,omitempty"`
	GroundingMetadata  *GroundingMetadata  `json:"groundingMetadata,omitempty"`
	URLContextMetadata *URLContextMetadata `json:"urlContextMetadata,omitempty"`
	LogprobsResult     *LogprobsResult     `json:"logprobsResult,omitempty"`
}

// BlockedReason explains a blocked prompt.
type BlockedReason string

const (
	BlockedReasonSafety     BlockedReason = "SAFETY"
	BlockedReasonBlocklist  BlockedReason = "BLOCKLIST"
	BlockedReasonProhibited BlockedReason = "PROHIBITED_CONTENT"
	BlockedReasonOther      BlockedReason = "OTHER"
)

// PromptFeedback reports prompt-level screening.
type PromptFeedback struct {
	BlockReason   BlockedReason   `json:"blockReason,omitempty"`
	BlockMessage  string          `json:"blockReasonMessage,omitempty"`
	SafetyRatings []*SafetyRating `json:"safetyRatings,omitempty"`
}

// UsageMetadata reports token accounting for a response.
type UsageMetadata struct {
	PromptTokenCount        int32 `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount    int32 `json:"candidatesTokenCount,omitempty"`
	CachedContentTokenCount int32 `json:"cachedContentTokenCount,omitempty"`
	ThoughtsTokenCount      int32 `json:"thoughtsTokenCount,omitempty"`
	ToolUsePromptTokenCount int32 `json:"toolUsePromptTokenCount,omitempty"`
	TotalTokenCount         int32 `json:"totalTokenCount,omitempty"`
}

// GenerateContentResponse is the canonical generate result for both
// dialects.
type GenerateContentResponse struct {
	Candidates     []*Candidate    `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
	ResponseID     string          `json:"responseId,omitempty"`

	// AutomaticFunctionCallingHistory is attached by the AFC driver and
	// never transmitted.
	AutomaticFunctionCallingHistory []*Content `json:"-"`
}

// Text concatenates the text parts of the first candidate. Thought
// parts are skipped.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// FunctionCalls extracts every function-call part across all
// candidates, in candidate then part order.
func (r *GenerateContentResponse) FunctionCalls() []*FunctionCall {
	if r == nil {
		return nil
	}
	var calls []*FunctionCall
	for _, cand := range r.Candidates {
		if cand == nil {
			continue
		}
		calls = append(calls, cand.Content.functionCalls()...)
	}
	return calls
}
