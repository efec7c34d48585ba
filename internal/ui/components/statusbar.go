// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for ragchat-tui.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hollandm/ragchat-tui/internal/ui/styles"
	"github.com/hollandm/ragchat-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar renders the bottom status line: connectivity, session, and
// key hints.
type StatusBar struct {
	theme *styles.Theme
}

// NewStatusBar creates a status bar using the given theme.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// shortcut hints shown on the right side of the bar.
var shortcuts = []struct{ key, desc string }{
	{"enter", "send"},
	{"ctrl+n", "new"},
	{"ctrl+b", "chats"},
	{"ctrl+c", "quit"},
}

// Render draws the status bar at the given width.
func (sb *StatusBar) Render(width int, connected bool, sessionID string, loading bool) string {
	t := sb.theme

	var left strings.Builder
	if connected {
		left.WriteString(t.Connected.Render("* connected"))
	} else {
		left.WriteString(t.Disconnected.Render("! disconnected"))
	}
	if sessionID != "" {
		left.WriteString(t.ShortcutDesc.Render("  session " + util.TruncateRunes(sessionID, 8)))
	}
	if loading {
		left.WriteString(t.ShortcutDesc.Render("  waiting for response"))
	}

	var right strings.Builder
	for i, s := range shortcuts {
		if i > 0 {
			right.WriteString("  ")
		}
		right.WriteString(t.ShortcutKey.Render(s.key))
		right.WriteString(t.ShortcutDesc.Render(" " + s.desc))
	}

	leftStr := left.String()
	rightStr := right.String()
	gap := width - lipgloss.Width(leftStr) - lipgloss.Width(rightStr) - 2
	if gap < 1 {
		return t.StatusBar.Width(width).Render(leftStr)
	}
	return t.StatusBar.Width(width).Render(leftStr + strings.Repeat(" ", gap) + rightStr)
}
