// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport maintains the persistent WebSocket connection to
// the chat backend. Inbound traffic is decoded into a closed set of
// typed events and delivered through a single channel in arrival
// order; consumers switch on the event type instead of registering
// per-event callbacks.
package transport

import "github.com/hollandm/ragchat-tui/internal/model"

// Wire event names shared with the backend.
const (
	eventMessage     = "chat:message"
	eventSession     = "chat:session"
	eventUserMessage = "chat:user_message"
	eventSources     = "chat:sources"
	eventResponse    = "chat:response"
	eventComplete    = "chat:complete"
	eventError       = "chat:error"
)

// Event is one item of inbound traffic or a connectivity change. The
// set of implementations is closed; consumers type-switch over it.
type Event interface {
	transportEvent()
}

// ConnectedEvent signals a live connection, on first connect and after
// every successful reconnect.
type ConnectedEvent struct{}

// DisconnectedEvent signals connection loss. Emitted once when the
// connection drops; if reconnection later succeeds a ConnectedEvent
// follows, otherwise the transport stays down silently.
type DisconnectedEvent struct{}

// SessionEvent carries the backend-assigned session id.
type SessionEvent struct {
	SessionID string
}

// UserMessageEvent is the backend's echo of the user's own message.
type UserMessageEvent struct {
	Message model.Message
}

// SourcesEvent carries retrieval citations for the in-flight response.
type SourcesEvent struct {
	Sources []model.Source
}

// ResponseFragmentEvent is one chunk of the streamed assistant
// response, to be appended to the streaming buffer as-is.
type ResponseFragmentEvent struct {
	Text string
}

// CompleteEvent terminates an exchange with the full assistant message.
type CompleteEvent struct {
	Message model.Message
}

// ErrorEvent terminates an exchange with a backend failure.
type ErrorEvent struct {
	Message string
}

func (ConnectedEvent) transportEvent()        {}
func (DisconnectedEvent) transportEvent()     {}
func (SessionEvent) transportEvent()          {}
func (UserMessageEvent) transportEvent()      {}
func (SourcesEvent) transportEvent()          {}
func (ResponseFragmentEvent) transportEvent() {}
func (CompleteEvent) transportEvent()         {}
func (ErrorEvent) transportEvent()            {}
