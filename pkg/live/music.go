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
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kadirpekel/genai/pkg/genai"
)

// MusicConfig tunes a live music session. Ephemeral tokens are not
// supported for music.
type MusicConfig struct {
	// HandshakeTimeout bounds the setup round trip. Defaults to 30s.
	HandshakeTimeout time.Duration

	// SessionResumption requests handles; set Handle to resume.
	SessionResumption *SessionResumptionConfig
}

func (c *MusicConfig) handshakeTimeout() time.Duration {
	if c != nil && c.HandshakeTimeout > 0 {
		return c.HandshakeTimeout
	}
	return defaultHandshakeTimeout
}

// MusicIncoming is one element of the music inbound stream.
type MusicIncoming struct {
	Message *MusicServerMessage
	Err     error
}

// MusicSession is a full-duplex music generation session. Same state
// machine as Session with music message variants and no tool traffic.
type MusicSession struct {
	coreSession
	outbound chan musicClientMessage
	inbound  chan MusicIncoming
}

// ConnectMusic opens a live music session on a model.
func ConnectMusic(ctx context.Context, client *genai.Client, model string, cfg *MusicConfig) (*MusicSession, error) {
	endpoint, headers, err := client.LiveEndpoint("BidiGenerateMusic", "")
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.handshakeTimeout()}
	conn, _, err := dialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		return nil, &WebSocketError{Err: err}
	}

	s := &MusicSession{
		coreSession: coreSession{conn: conn, done: make(chan struct{})},
		outbound:    make(chan musicClientMessage, outboundQueueDepth),
		inbound:     make(chan MusicIncoming, inboundQueueDepth),
	}

	payload := &setupPayload{Model: model}
	if cfg != nil {
		payload.SessionResumption = cfg.SessionResumption
	}
	setup := musicClientMessage{Setup: payload}
	if err := s.handshake(&setup, cfg.handshakeTimeout()); err != nil {
		conn.Close()
		return nil, err
	}

	go s.writeLoop()
	go s.readLoop()
	return s, nil
}

// Messages is the inbound stream. It is closed when the session ends.
func (s *MusicSession) Messages() <-chan MusicIncoming {
	return s.inbound
}

// SendPrompts enqueues weighted prompts.
func (s *MusicSession) SendPrompts(ctx context.Context, prompts ...*WeightedPrompt) error {
	return s.send(ctx, musicClientMessage{
		ClientContent: &MusicClientContent{WeightedPrompts: prompts},
	})
}

// SetGenerationConfig enqueues a music generation config update.
func (s *MusicSession) SetGenerationConfig(ctx context.Context, cfg *MusicGenerationConfig) error {
	return s.send(ctx, musicClientMessage{MusicGenerationConfig: cfg})
}

// SendPlaybackControl enqueues a playback control command.
func (s *MusicSession) SendPlaybackControl(ctx context.Context, control PlaybackControl) error {
	return s.send(ctx, musicClientMessage{PlaybackControl: control})
}

func (s *MusicSession) send(ctx context.Context, msg musicClientMessage) error {
	select {
	case s.outbound <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MusicSession) writeLoop() {
	for {
		select {
		case msg := <-s.outbound:
			if err := s.conn.WriteJSON(&msg); err != nil {
				s.deliver(MusicIncoming{Err: &WebSocketError{Err: err}})
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *MusicSession) readLoop() {
	defer close(s.inbound)

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.deliver(MusicIncoming{Err: &WebSocketError{Err: err}})
				}
				s.Close()
			}
			return
		}

		var msg MusicServerMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			if !s.deliver(MusicIncoming{Err: &DecodeError{Err: err}}) {
				return
			}
			continue
		}

		if msg.SessionResumptionUpdate != nil {
			s.applyResumptionUpdate(msg.SessionResumptionUpdate)
		}
		if msg.GoAway != nil {
			s.recordGoAway(msg.GoAway)
		}

		if !s.deliver(MusicIncoming{Message: &msg}) {
			return
		}
	}
}

func (s *MusicSession) deliver(in MusicIncoming) bool {
	select {
	case s.inbound <- in:
		return true
	case <-s.done:
		return false
	}
}
