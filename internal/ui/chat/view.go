// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/hollandm/ragchat-tui/internal/model"
	"github.com/hollandm/ragchat-tui/internal/session"
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderTranscript builds the scrollback content from a snapshot.
func (m *Model) renderTranscript(snap session.Snapshot) string {
	if len(snap.Messages) == 0 && snap.StreamingText == "" {
		return m.theme.ShortcutDesc.Render(
			"\n  Start a new conversation, or press ctrl+b to browse previous chats.\n")
	}

	var b strings.Builder
	for _, msg := range snap.Messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if snap.StreamingText != "" {
		b.WriteString(m.theme.AssistantLabel.Render("Assistant"))
		b.WriteString("\n")
		// Streamed text renders raw; markdown is applied once the
		// message completes.
		b.WriteString(snap.StreamingText)
		b.WriteString(m.theme.StreamCursor.Render("▌"))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderMessage(msg model.Message) string {
	var b strings.Builder

	label := m.theme.AssistantLabel
	if msg.Role == model.RoleUser {
		label = m.theme.UserLabel
	} else if msg.IsError() {
		label = m.theme.ErrorLabel
	}
	b.WriteString(label.Render(msg.Role.DisplayName()))
	if !msg.Timestamp.IsZero() {
		b.WriteString(m.theme.Timestamp.Render("  " + msg.Timestamp.Format("15:04")))
	}
	b.WriteString("\n")

	if msg.Role == model.RoleAssistant && !msg.IsError() && m.renderer != nil {
		if rendered, err := m.renderer.Render(msg.Content); err == nil {
			b.WriteString(strings.TrimRight(rendered, "\n"))
			b.WriteString("\n")
		} else {
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.theme.UserText.Render(msg.Content))
		b.WriteString("\n")
	}

	if len(msg.Sources) > 0 {
		b.WriteString(m.theme.SourceLine.Render("  sources:"))
		b.WriteString("\n")
		for _, src := range msg.Sources {
			line := "  - " + src.Title
			if src.URL != "" {
				line += " <" + src.URL + ">"
			}
			if src.Score > 0 {
				line += fmt.Sprintf(" (%.2f)", src.Score)
			}
			b.WriteString(m.theme.SourceLine.Render(line))
			b.WriteString("\n")
		}
	}

	return b.String()
}
