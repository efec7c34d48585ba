// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the client's session state machine. A
// Coordinator owns the session id, the ordered message log, the
// streaming buffer, and the loading and connectivity flags. All
// transport events flow through HandleEvent from a single goroutine;
// the UI reads consistent snapshots and calls the operation methods.
//
// States: idle (no session) -> active/idle (session, no exchange in
// flight) -> active/loading (exchange in flight) -> active/idle.
// NewChat returns to idle from anywhere.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hollandm/ragchat-tui/internal/model"
	"github.com/hollandm/ragchat-tui/internal/transport"
)

var (
	// ErrBusy indicates an exchange is already in flight. One exchange
	// at a time; the caller retries after the current one terminates.
	ErrBusy = errors.New("a response is already in progress")

	// ErrNotConnected mirrors the transport sentinel so callers can
	// check against this package alone.
	ErrNotConnected = transport.ErrNotConnected
)

// DefaultExchangeTimeout bounds how long an exchange may stay in
// flight before the client gives up and synthesizes an error.
const DefaultExchangeTimeout = 120 * time.Second

// Sender is the outbound half of the transport.
type Sender interface {
	Send(msg transport.ChatMessage) error
	IsConnected() bool
}

// HistoryLoader fetches the full message log of a session.
type HistoryLoader interface {
	History(ctx context.Context, sessionID string) ([]model.Message, error)
}

// IndexStore is the slice of the chat index the coordinator writes:
// title upserts and the last-active-session pointer.
type IndexStore interface {
	Upsert(id, title string) error
	SetLastSessionID(id string) error
	ClearLastSessionID() error
}

// Snapshot is a consistent copy of the coordinator's state for
// rendering. Mutating a snapshot never affects the coordinator.
type Snapshot struct {
	SessionID     string
	Messages      []model.Message
	StreamingText string
	Loading       bool
	Connected     bool
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator is the session state machine.
type Coordinator struct {
	sender Sender
	loader HistoryLoader
	store  IndexStore

	timeout time.Duration

	mu             sync.Mutex
	sessionID      string
	messages       []model.Message
	streaming      strings.Builder
	loading        bool
	connected      bool
	pendingSources []model.Source
	timer          *time.Timer
	exchangeGen    int

	// stale counts abandoned exchanges whose terminal event has not
	// arrived yet. The backend answers sequentially per connection, so
	// everything up to and including the next terminal event belongs
	// to a dead exchange and must not touch the current chat.
	stale int

	// notify fires after a state change that did not come through
	// HandleEvent, currently only the exchange timeout. Called outside
	// the lock.
	notify func()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithExchangeTimeout overrides the exchange timeout. Zero disables it.
func WithExchangeTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithNotify sets the callback fired on self-initiated state changes.
func WithNotify(fn func()) Option {
	return func(c *Coordinator) { c.notify = fn }
}

// New creates a coordinator. Sender, loader, and store are required.
func New(sender Sender, loader HistoryLoader, store IndexStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		sender:  sender,
		loader:  loader,
		store:   store,
		timeout: DefaultExchangeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]model.Message, len(c.messages))
	copy(messages, c.messages)
	return Snapshot{
		SessionID:     c.sessionID,
		Messages:      messages,
		StreamingText: c.streaming.String(),
		Loading:       c.loading,
		Connected:     c.connected,
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SendMessage starts an exchange. Whitespace-only input is a silent
// no-op. Returns ErrNotConnected when the transport is down and
// ErrBusy when an exchange is already in flight; in both cases the log
// and flags are untouched. Otherwise the user message is appended
// optimistically and the exchange begins.
func (c *Coordinator) SendMessage(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.sender.IsConnected() {
		return ErrNotConnected
	}
	if c.loading {
		return ErrBusy
	}

	if err := c.sender.Send(transport.ChatMessage{
		SessionID: c.sessionID,
		Message:   trimmed,
	}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	c.messages = append(c.messages, model.NewMessage(model.RoleUser, trimmed))
	c.loading = true
	c.streaming.Reset()
	c.pendingSources = nil
	c.armTimeoutLocked()
	c.deriveTitleLocked()
	return nil
}

// HandleEvent processes one transport event. Events must arrive from a
// single goroutine in transport order.
func (c *Coordinator) HandleEvent(ev transport.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case transport.ConnectedEvent:
		c.connected = true

	case transport.DisconnectedEvent:
		c.connected = false

	case transport.SessionEvent:
		c.sessionID = e.SessionID
		c.store.SetLastSessionID(e.SessionID)
		c.deriveTitleLocked()

	case transport.UserMessageEvent:
		if c.stale > 0 {
			return
		}
		// Server echo of the user's message. The optimistic append in
		// SendMessage usually covers it; append only when it carries
		// content we have not recorded.
		if !c.hasTrailingUserMessageLocked(e.Message.Content) {
			c.messages = append(c.messages, e.Message)
			c.deriveTitleLocked()
		}

	case transport.SourcesEvent:
		if c.stale > 0 || !c.loading {
			return
		}
		c.pendingSources = e.Sources

	case transport.ResponseFragmentEvent:
		if c.stale > 0 || !c.loading {
			return
		}
		// Fragments are appended exactly as received, in order.
		c.streaming.WriteString(e.Text)

	case transport.CompleteEvent:
		if c.dropTerminalLocked() {
			return
		}
		msg := e.Message
		if len(msg.Sources) == 0 && len(c.pendingSources) > 0 {
			msg.Sources = c.pendingSources
		}
		c.messages = append(c.messages, msg)
		c.finishExchangeLocked()

	case transport.ErrorEvent:
		if c.dropTerminalLocked() {
			return
		}
		c.messages = append(c.messages, model.NewErrorMessage(e.Message))
		c.finishExchangeLocked()
	}
}

// LoadHistory replaces the log with the given session's full history.
// On failure the current log, session id, and flags stay untouched and
// the error satisfies errors.Is(err, api.ErrHistoryUnavailable), so
// the UI can keep what it has and offer a retry.
func (c *Coordinator) LoadHistory(ctx context.Context, sessionID string) error {
	messages, err := c.loader.History(ctx, sessionID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.abandonExchangeLocked()
	c.sessionID = sessionID
	c.messages = messages
	c.streaming.Reset()
	c.loading = false
	c.pendingSources = nil
	c.disarmTimeoutLocked()
	c.store.SetLastSessionID(sessionID)
	c.deriveTitleLocked()
	return nil
}

// NewChat resets to the idle state: no session, empty log, no exchange
// in flight. The persisted last-session pointer is cleared so the next
// launch starts fresh too.
func (c *Coordinator) NewChat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.abandonExchangeLocked()
	c.sessionID = ""
	c.messages = nil
	c.streaming.Reset()
	c.loading = false
	c.pendingSources = nil
	c.disarmTimeoutLocked()
	return c.store.ClearLastSessionID()
}

// =============================================================================
// INTERNALS
// =============================================================================

// abandonExchangeLocked marks an in-flight exchange as dead. Its
// remaining events, up to and including the terminal one, are dropped
// so they cannot leak into whatever chat comes next.
func (c *Coordinator) abandonExchangeLocked() {
	if c.loading {
		c.stale++
	}
}

// dropTerminalLocked reports whether a terminal event belongs to a
// dead exchange (consuming one abandoned slot) or arrived with no
// exchange in flight at all.
func (c *Coordinator) dropTerminalLocked() bool {
	if c.stale > 0 {
		c.stale--
		return true
	}
	return !c.loading
}

// hasTrailingUserMessageLocked reports whether the most recent user
// message in the log has the given content.
func (c *Coordinator) hasTrailingUserMessageLocked(content string) bool {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == model.RoleUser {
			return c.messages[i].Content == content
		}
	}
	return false
}

// finishExchangeLocked applies the shared terminal-event cleanup:
// buffer cleared, loading off, timeout disarmed.
func (c *Coordinator) finishExchangeLocked() {
	c.streaming.Reset()
	c.loading = false
	c.pendingSources = nil
	c.disarmTimeoutLocked()
	c.deriveTitleLocked()
}

// deriveTitleLocked records the chat title once the session has an id
// and a first user message. The store ignores upserts that change
// nothing, so calling this on every relevant transition is free.
func (c *Coordinator) deriveTitleLocked() {
	if c.sessionID == "" {
		return
	}
	for _, msg := range c.messages {
		if msg.Role == model.RoleUser {
			c.store.Upsert(c.sessionID, model.DeriveTitle(msg.Content))
			return
		}
	}
}

// armTimeoutLocked starts the exchange timer. A generation counter
// keeps a stale timer from firing into a later exchange.
func (c *Coordinator) armTimeoutLocked() {
	c.disarmTimeoutLocked()
	if c.timeout <= 0 {
		return
	}
	c.exchangeGen++
	gen := c.exchangeGen
	c.timer = time.AfterFunc(c.timeout, func() {
		c.expireExchange(gen)
	})
}

func (c *Coordinator) disarmTimeoutLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.exchangeGen++
}

// expireExchange converts a never-terminating exchange into a synthetic
// error, using the same terminal path as a backend chat:error.
func (c *Coordinator) expireExchange(gen int) {
	c.mu.Lock()
	if gen != c.exchangeGen || !c.loading {
		c.mu.Unlock()
		return
	}
	// The backend may still answer eventually; whatever it sends for
	// this exchange is dropped.
	c.abandonExchangeLocked()
	c.messages = append(c.messages, model.NewErrorMessage("request timed out"))
	c.finishExchangeLocked()
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}
