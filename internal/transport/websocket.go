// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hollandm/ragchat-tui/internal/model"
)

// ErrNotConnected indicates a send was attempted with no live
// connection. The message was not transmitted.
var ErrNotConnected = errors.New("not connected to server")

const (
	// Reconnection bounds, matching the backend's expected client
	// behavior: a fixed delay between attempts and a hard cap.
	defaultMaxReconnects  = 5
	defaultReconnectDelay = 1 * time.Second

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	eventBuffer      = 256
)

// envelope is the wire framing: every frame is a JSON object naming the
// event and carrying its payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChatMessage is the outbound payload of a chat:message frame. An empty
// SessionID asks the backend to open a new session.
type ChatMessage struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// =============================================================================
// TRANSPORT
// =============================================================================

// Transport owns one WebSocket connection and its read loop. All
// inbound events flow through the single Events channel in arrival
// order. A dropped connection is retried a bounded number of times;
// after that the transport stays down until Connect is called again.
type Transport struct {
	url            string
	maxReconnects  int
	reconnectDelay time.Duration
	dialer         *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc

	events chan Event
}

// New creates a transport for the backend at serverURL
// (scheme://host:port). The WebSocket endpoint is <serverURL>/ws with
// the scheme switched to ws/wss.
func New(serverURL string) (*Transport, error) {
	wsURL, err := websocketURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Transport{
		url:            wsURL,
		maxReconnects:  defaultMaxReconnects,
		reconnectDelay: defaultReconnectDelay,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
		events: make(chan Event, eventBuffer),
	}, nil
}

func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server url scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	return u.String(), nil
}

// Events returns the inbound event channel. It is never closed; the
// consumer stops reading when it shuts down.
func (t *Transport) Events() <-chan Event {
	return t.events
}

// IsConnected reports whether a live connection exists. No side
// effects.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Connect establishes the connection and starts the read loop.
// Idempotent: a live connection is kept as-is.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", t.url, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	if t.conn != nil {
		// A concurrent Connect won the race; keep its connection.
		t.mu.Unlock()
		cancel()
		conn.Close()
		return nil
	}
	t.conn = conn
	t.cancel = cancel
	t.mu.Unlock()

	t.emit(loopCtx, ConnectedEvent{})
	go t.readLoop(loopCtx, conn)
	return nil
}

// Disconnect closes the connection and stops reconnection. Safe to
// call when already disconnected.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	conn := t.conn
	cancel := t.cancel
	t.conn = nil
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// Send transmits a chat message. Returns ErrNotConnected when no live
// connection exists; nothing is queued.
func (t *Transport) Send(msg ChatMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	frame, err := json.Marshal(envelope{Event: eventMessage, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := t.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// =============================================================================
// READ LOOP
// =============================================================================

// readLoop drains the connection, reconnecting on failure until the
// attempt budget is exhausted or the transport is shut down.
func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.emit(ctx, DisconnectedEvent{})

			conn = t.reconnect(ctx)
			if conn == nil {
				return
			}
			t.emit(ctx, ConnectedEvent{})
			continue
		}
		t.dispatch(ctx, frame)
	}
}

// reconnect retries the dial up to maxReconnects times with a fixed
// delay. Returns nil when the budget is exhausted or the transport was
// shut down; the transport is left disconnected in both cases.
func (t *Transport) reconnect(ctx context.Context) *websocket.Conn {
	t.mu.Lock()
	t.conn = nil
	t.mu.Unlock()

	for attempt := 1; attempt <= t.maxReconnects; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(t.reconnectDelay):
		}

		conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
		if err != nil {
			continue
		}

		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()
		return conn
	}
	return nil
}

// dispatch decodes one frame into its typed event. Unknown event names
// and malformed payloads are dropped; the stream keeps flowing.
func (t *Transport) dispatch(ctx context.Context, frame []byte) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return
	}

	switch env.Event {
	case eventSession:
		var data struct {
			SessionID string `json:"sessionId"`
		}
		if json.Unmarshal(env.Data, &data) == nil && data.SessionID != "" {
			t.emit(ctx, SessionEvent{SessionID: data.SessionID})
		}
	case eventUserMessage:
		var msg model.Message
		if json.Unmarshal(env.Data, &msg) == nil {
			t.emit(ctx, UserMessageEvent{Message: msg})
		}
	case eventSources:
		var data struct {
			Sources []model.Source `json:"sources"`
		}
		if json.Unmarshal(env.Data, &data) == nil {
			t.emit(ctx, SourcesEvent{Sources: data.Sources})
		}
	case eventResponse:
		var data struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(env.Data, &data) == nil {
			t.emit(ctx, ResponseFragmentEvent{Text: data.Text})
		}
	case eventComplete:
		var msg model.Message
		if json.Unmarshal(env.Data, &msg) == nil {
			t.emit(ctx, CompleteEvent{Message: msg})
		}
	case eventError:
		var data struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(env.Data, &data) == nil {
			t.emit(ctx, ErrorEvent{Message: data.Message})
		}
	}
}

// emit delivers an event in order, giving up only on shutdown.
func (t *Transport) emit(ctx context.Context, ev Event) {
	select {
	case t.events <- ev:
	case <-ctx.Done():
	}
}
