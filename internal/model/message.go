// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the core data types of ragchat-tui: chat
// messages with retrieval sources, chat index entries, and the title
// derivation applied to new sessions.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// ROLES
// ============================================================================

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// ============================================================================
// MESSAGES
// ============================================================================

// Source is a retrieval citation attached to an assistant message.
type Source struct {
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Score float64 `json:"score,omitempty"`
}

// Message is one entry in a conversation log. Messages are immutable
// once appended; the log is ordered chronologically by append order.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []Source  `json:"sources,omitempty"`
}

// NewMessage creates a message with a fresh id and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewErrorMessage creates the synthetic assistant message that renders a
// backend failure inline in the conversation log.
func NewErrorMessage(text string) Message {
	return NewMessage(RoleAssistant, "Error: "+text)
}

// IsError reports whether the message is a synthetic error message.
func (m Message) IsError() bool {
	return m.Role == RoleAssistant && strings.HasPrefix(m.Content, "Error: ")
}

// ============================================================================
// EXPORT
// ============================================================================

// ExportMarkdown renders a conversation log as a Markdown document.
func ExportMarkdown(title string, messages []Message) string {
	var b strings.Builder

	if title == "" {
		title = "Conversation"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(messages) > 0 {
		fmt.Fprintf(&b, "*Exported %s*\n\n---\n\n", time.Now().Format("2006-01-02 15:04"))
	}

	for _, msg := range messages {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", msg.Role.DisplayName(), strings.TrimSpace(msg.Content))
		if len(msg.Sources) > 0 {
			b.WriteString("**Sources:**\n\n")
			for _, src := range msg.Sources {
				if src.URL != "" {
					fmt.Fprintf(&b, "- [%s](%s)\n", src.Title, src.URL)
				} else {
					fmt.Fprintf(&b, "- %s\n", src.Title)
				}
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
