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

// Package live implements full-duplex WebSocket sessions against the
// bidirectional generate service: conversational content, realtime
// media, tool traffic and the music variant.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kadirpekel/genai/pkg/genai"
	"github.com/kadirpekel/genai/pkg/httpclient"
)

// ErrSessionClosed is returned by sends on a torn-down session.
var ErrSessionClosed = errors.New("live: session closed")

// WebSocketError wraps a transport failure of the session socket.
type WebSocketError struct {
	Err error
}

func (e *WebSocketError) Error() string {
	return fmt.Sprintf("live: websocket failure: %v", e.Err)
}

func (e *WebSocketError) Unwrap() error {
	return e.Err
}

// DecodeError wraps an undecodable inbound frame. It is forwarded to
// the consumer without closing the session.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("live: could not decode server message: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

const (
	defaultHandshakeTimeout = 30 * time.Second
	// inboundQueueDepth bounds undelivered server messages so a slow
	// consumer pauses the reader.
	inboundQueueDepth = 16
	// outboundQueueDepth bounds queued sends; a full queue blocks the
	// sender.
	outboundQueueDepth = 64
)

// Config tunes a live session.
type Config struct {
	// EphemeralToken authenticates instead of the client API key and
	// switches to the constrained bidi method under v1alpha.
	EphemeralToken string

	ResponseModalities []string
	SystemInstruction  *genai.Content
	Tools              []*genai.Tool
	SpeechConfig       *genai.SpeechConfig
	Temperature        *float64

	// SessionResumption requests handles; set Handle to resume.
	SessionResumption *SessionResumptionConfig

	InputAudioTranscription  bool
	OutputAudioTranscription bool

	// HandshakeTimeout bounds the setup round trip. Defaults to 30s.
	HandshakeTimeout time.Duration
}

func (c *Config) setup(model string) *setupPayload {
	payload := &setupPayload{Model: model}
	if c == nil {
		return payload
	}

	gen := map[string]any{}
	if len(c.ResponseModalities) > 0 {
		gen["responseModalities"] = c.ResponseModalities
	}
	if c.Temperature != nil {
		gen["temperature"] = *c.Temperature
	}
	if c.SpeechConfig != nil {
		gen["speechConfig"] = c.SpeechConfig
	}
	if len(gen) > 0 {
		payload.GenerationConfig = gen
	}

	payload.SystemInstruction = c.SystemInstruction
	payload.Tools = c.Tools
	payload.SessionResumption = c.SessionResumption
	if c.InputAudioTranscription {
		payload.InputTranscription = map[string]any{}
	}
	if c.OutputAudioTranscription {
		payload.OutputTranscription = map[string]any{}
	}
	return payload
}

func (c *Config) handshakeTimeout() time.Duration {
	if c != nil && c.HandshakeTimeout > 0 {
		return c.HandshakeTimeout
	}
	return defaultHandshakeTimeout
}

// Incoming is one element of the inbound stream. Err is set for decode
// failures (session stays up) and terminal transport failures (session
// is down); Message is set otherwise.
type Incoming struct {
	Message *ServerMessage
	Err     error
}

// coreSession holds the connection state shared by the content and
// music variants. Resumption and go-away state are written only by the
// reader; accessors take the lock.
type coreSession struct {
	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
	sessionID string

	mu                sync.Mutex
	resumptionHandle  string
	resumable         bool
	lastConsumedIndex int64
	goAwayTimeLeft    time.Duration
}

// SessionID is the server-assigned id captured during setup.
func (s *coreSession) SessionID() string {
	return s.sessionID
}

// ResumptionHandle returns the most recent server-supplied handle.
func (s *coreSession) ResumptionHandle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumptionHandle
}

// Resumable reports whether the server marked the session resumable.
func (s *coreSession) Resumable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumable
}

// LastConsumedIndex is the last client message index the server acked.
func (s *coreSession) LastConsumedIndex() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastConsumedIndex
}

// GoAwayTimeLeft is the remaining lifetime announced by the server,
// zero when no go-away was received.
func (s *coreSession) GoAwayTimeLeft() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goAwayTimeLeft
}

// Close sends a close frame, cancels the loops and drops pending
// outbound messages. Safe to call more than once.
func (s *coreSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *coreSession) applyResumptionUpdate(update *SessionResumptionUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The handle is overwritten only when the server supplies one.
	if update.NewHandle != "" {
		s.resumptionHandle = update.NewHandle
	}
	s.resumable = update.Resumable
	if update.LastConsumedIndex > 0 {
		s.lastConsumedIndex = update.LastConsumedIndex
	}
}

func (s *coreSession) recordGoAway(g *GoAway) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goAwayTimeLeft = g.Duration()
}

// handshake sends the setup frame and reads until setup_complete,
// bounded by the handshake timeout.
func (s *coreSession) handshake(setup any, timeout time.Duration) error {
	if err := s.conn.WriteJSON(setup); err != nil {
		return &WebSocketError{Err: err}
	}

	deadline := time.Now().Add(timeout)
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return &WebSocketError{Err: err}
	}
	defer s.conn.SetReadDeadline(time.Time{})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return &httpclient.TimeoutError{Message: "live setup handshake timed out", Err: err}
			}
			return &WebSocketError{Err: err}
		}

		var msg ServerMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			continue
		}
		if msg.SetupComplete != nil {
			s.sessionID = msg.SetupComplete.SessionID
			return nil
		}
	}
}

// Session is a full-duplex conversation. Messages are read from
// Messages(); sends enqueue in order. It is safe for concurrent use.
type Session struct {
	coreSession
	outbound chan clientMessage
	inbound  chan Incoming
}

// Connect opens a live session on a model. The handshake completes
// before Connect returns.
func Connect(ctx context.Context, client *genai.Client, model string, cfg *Config) (*Session, error) {
	token := ""
	if cfg != nil {
		token = cfg.EphemeralToken
	}
	endpoint, headers, err := client.LiveEndpoint("BidiGenerateContent", token)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.handshakeTimeout()}
	conn, _, err := dialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		return nil, &WebSocketError{Err: err}
	}

	s := &Session{
		coreSession: coreSession{conn: conn, done: make(chan struct{})},
		outbound:    make(chan clientMessage, outboundQueueDepth),
		inbound:     make(chan Incoming, inboundQueueDepth),
	}

	setup := clientMessage{Setup: cfg.setup(model)}
	if err := s.handshake(&setup, cfg.handshakeTimeout()); err != nil {
		conn.Close()
		return nil, err
	}

	go s.writeLoop()
	go s.readLoop()
	return s, nil
}

// Messages is the inbound stream. It is closed when the session ends;
// a terminal transport error is delivered before the close.
func (s *Session) Messages() <-chan Incoming {
	return s.inbound
}

// SendContent enqueues conversational turns.
func (s *Session) SendContent(ctx context.Context, content *ClientContent) error {
	return s.send(ctx, clientMessage{ClientContent: content})
}

// SendRealtimeInput enqueues streaming media or an activity marker.
func (s *Session) SendRealtimeInput(ctx context.Context, input *RealtimeInput) error {
	return s.send(ctx, clientMessage{RealtimeInput: input})
}

// SendToolResponse enqueues function responses for a server tool call.
func (s *Session) SendToolResponse(ctx context.Context, resp *ToolResponse) error {
	return s.send(ctx, clientMessage{ToolResponse: resp})
}

func (s *Session) send(ctx context.Context, msg clientMessage) error {
	select {
	case s.outbound <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeLoop drains the outbound queue in enqueue order.
func (s *Session) writeLoop() {
	for {
		select {
		case msg := <-s.outbound:
			if err := s.conn.WriteJSON(&msg); err != nil {
				s.fail(err)
				return
			}
		case <-s.done:
			return
		}
	}
}

// readLoop decodes inbound frames and forwards them. Ping frames are
// answered with pongs by the connection's default ping handler.
func (s *Session) readLoop() {
	defer close(s.inbound)

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.deliver(Incoming{Err: &WebSocketError{Err: err}})
				}
				s.Close()
			}
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			// Decode failures are surfaced without ending the session.
			if !s.deliver(Incoming{Err: &DecodeError{Err: err}}) {
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

		if !s.deliver(Incoming{Message: &msg}) {
			return
		}
	}
}

func (s *Session) deliver(in Incoming) bool {
	select {
	case s.inbound <- in:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) fail(err error) {
	s.deliver(Incoming{Err: &WebSocketError{Err: err}})
	s.Close()
}
