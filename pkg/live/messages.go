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

package live

import (
	"time"

	"github.com/kadirpekel/genai/pkg/genai"
)

// clientMessage is one outbound frame. Exactly one field is set.
type clientMessage struct {
	Setup         *setupPayload  `json:"setup,omitempty"`
	ClientContent *ClientContent `json:"clientContent,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
	ToolResponse  *ToolResponse  `json:"toolResponse,omitempty"`
}

// musicClientMessage is one outbound frame of a music session.
type musicClientMessage struct {
	Setup                 *setupPayload          `json:"setup,omitempty"`
	ClientContent         *MusicClientContent    `json:"clientContent,omitempty"`
	MusicGenerationConfig *MusicGenerationConfig `json:"musicGenerationConfig,omitempty"`
	PlaybackControl       PlaybackControl        `json:"playbackControl,omitempty"`
}

// setupPayload is the handshake message opening a session.
type setupPayload struct {
	Model               string                   `json:"model,omitempty"`
	GenerationConfig    map[string]any           `json:"generationConfig,omitempty"`
	SystemInstruction   *genai.Content           `json:"systemInstruction,omitempty"`
	Tools               []*genai.Tool            `json:"tools,omitempty"`
	SessionResumption   *SessionResumptionConfig `json:"sessionResumption,omitempty"`
	InputTranscription  map[string]any           `json:"inputAudioTranscription,omitempty"`
	OutputTranscription map[string]any           `json:"outputAudioTranscription,omitempty"`
}

// SessionResumptionConfig requests resumption handles; a non-empty
// Handle resumes a prior session.
type SessionResumptionConfig struct {
	Handle      string `json:"handle,omitempty"`
	Transparent bool   `json:"transparent,omitempty"`
}

// ClientContent carries conversational turns.
type ClientContent struct {
	Turns        []*genai.Content `json:"turns,omitempty"`
	TurnComplete bool             `json:"turnComplete,omitempty"`
}

// RealtimeInput carries streaming media and activity markers. Exactly
// one field should be set per message.
type RealtimeInput struct {
	Audio          *genai.Blob    `json:"audio,omitempty"`
	Video          *genai.Blob    `json:"video,omitempty"`
	Text           string         `json:"text,omitempty"`
	ActivityStart  map[string]any `json:"activityStart,omitempty"`
	ActivityEnd    map[string]any `json:"activityEnd,omitempty"`
	AudioStreamEnd bool           `json:"audioStreamEnd,omitempty"`
}

// ToolResponse answers a server tool call.
type ToolResponse struct {
	FunctionResponses []*genai.FunctionResponse `json:"functionResponses,omitempty"`
}

// ServerMessage is one inbound frame; fields other than the populated
// variant are nil.
type ServerMessage struct {
	SetupComplete           *SetupComplete           `json:"setupComplete,omitempty"`
	ServerContent           *ServerContent           `json:"serverContent,omitempty"`
	ToolCall                *ToolCall                `json:"toolCall,omitempty"`
	ToolCallCancellation    *ToolCallCancellation    `json:"toolCallCancellation,omitempty"`
	SessionResumptionUpdate *SessionResumptionUpdate `json:"sessionResumptionUpdate,omitempty"`
	GoAway                  *GoAway                  `json:"goAway,omitempty"`
	UsageMetadata           *genai.UsageMetadata     `json:"usageMetadata,omitempty"`
}

// MusicServerMessage is one inbound frame of a music session.
type MusicServerMessage struct {
	SetupComplete           *SetupComplete           `json:"setupComplete,omitempty"`
	ServerContent           *ServerMusic             `json:"serverContent,omitempty"`
	SessionResumptionUpdate *SessionResumptionUpdate `json:"sessionResumptionUpdate,omitempty"`
	GoAway                  *GoAway                  `json:"goAway,omitempty"`
}

// SetupComplete acknowledges the handshake.
type SetupComplete struct {
	SessionID string `json:"sessionId,omitempty"`
}

// ServerContent is a model turn fragment.
type ServerContent struct {
	ModelTurn           *genai.Content `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	GenerationComplete  bool           `json:"generationComplete,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// Transcription is recognised text for an audio stream.
type Transcription struct {
	Text     string `json:"text,omitempty"`
	Finished bool   `json:"finished,omitempty"`
}

// ToolCall asks the client to run functions.
type ToolCall struct {
	FunctionCalls []*genai.FunctionCall `json:"functionCalls,omitempty"`
}

// ToolCallCancellation withdraws earlier tool calls by id.
type ToolCallCancellation struct {
	IDs []string `json:"ids,omitempty"`
}

// SessionResumptionUpdate carries the latest resumption state.
type SessionResumptionUpdate struct {
	NewHandle         string `json:"newHandle,omitempty"`
	Resumable         bool   `json:"resumable,omitempty"`
	LastConsumedIndex int64  `json:"lastConsumedClientMessageIndex,omitempty,string"`
}

// GoAway warns of an imminent server-side disconnect.
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// Duration parses the time-left hint, zero when absent or malformed.
func (g *GoAway) Duration() time.Duration {
	if g == nil || g.TimeLeft == "" {
		return 0
	}
	d, err := time.ParseDuration(g.TimeLeft)
	if err != nil {
		return 0
	}
	return d
}

// WeightedPrompt steers music generation.
type WeightedPrompt struct {
	Text   string  `json:"text,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// MusicClientContent carries weighted prompts.
type MusicClientContent struct {
	WeightedPrompts []*WeightedPrompt `json:"weightedPrompts,omitempty"`
}

// MusicGenerationConfig tunes live music output.
type MusicGenerationConfig struct {
	BPM         int32   `json:"bpm,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Guidance    float64 `json:"guidance,omitempty"`
	Density     float64 `json:"density,omitempty"`
	Brightness  float64 `json:"brightness,omitempty"`
	Scale       string  `json:"scale,omitempty"`
}

// PlaybackControl steers music playback.
type PlaybackControl string

const (
	PlaybackPlay         PlaybackControl = "PLAY"
	PlaybackPause        PlaybackControl = "PAUSE"
	PlaybackStop         PlaybackControl = "STOP"
	PlaybackResetContext PlaybackControl = "RESET_CONTEXT"
)

// ServerMusic is a music output fragment.
type ServerMusic struct {
	AudioChunks []*genai.Blob `json:"audioChunks,omitempty"`
}
