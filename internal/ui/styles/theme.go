// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for ragchat-tui.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects
// the terminal's background so markdown rendering can match.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// CHAT STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorLabel     lipgloss.Style
	UserText       lipgloss.Style
	StreamCursor   lipgloss.Style
	SourceLine     lipgloss.Style
	Timestamp      lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarHeading  lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style

	// ==========================================================================
	// STATUS BAR AND INPUT STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	Connected     lipgloss.Style
	Disconnected  lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style
	InputPrompt   lipgloss.Style
	Spinner       lipgloss.Style
	NoticeError   lipgloss.Style
	NoticeWarning lipgloss.Style
}

// Palette colors, chosen to read on both dark and light backgrounds.
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
	colorGood    = lipgloss.AdaptiveColor{Light: "#117A32", Dark: "#3FB950"}
	colorBad     = lipgloss.AdaptiveColor{Light: "#C4432B", Dark: "#F85149"}
	colorWarn    = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	colorSurface = lipgloss.AdaptiveColor{Light: "#EFEFEF", Dark: "#1F1F28"}
)

// NewTheme builds the theme for the current terminal.
func NewTheme() *Theme {
	output := termenv.DefaultOutput()

	t := &Theme{
		IsDark:       output.HasDarkBackground(),
		ColorProfile: output.Profile,
	}

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(colorGood)
	t.ErrorLabel = lipgloss.NewStyle().Bold(true).Foreground(colorBad)
	t.UserText = lipgloss.NewStyle()
	t.StreamCursor = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	t.SourceLine = lipgloss.NewStyle().Foreground(colorMuted)
	t.Timestamp = lipgloss.NewStyle().Foreground(colorMuted).Faint(true)

	t.Sidebar = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(colorMuted).
		PaddingRight(1)
	t.SidebarHeading = lipgloss.NewStyle().Bold(true).Foreground(colorMuted).MarginTop(1)
	t.SidebarItem = lipgloss.NewStyle()
	t.SidebarSelected = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)

	t.StatusBar = lipgloss.NewStyle().Background(colorSurface).Padding(0, 1)
	t.Connected = lipgloss.NewStyle().Foreground(colorGood)
	t.Disconnected = lipgloss.NewStyle().Foreground(colorBad).Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(colorMuted)
	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	t.Spinner = lipgloss.NewStyle().Foreground(colorPrimary)
	t.NoticeError = lipgloss.NewStyle().Foreground(colorBad)
	t.NoticeWarning = lipgloss.NewStyle().Foreground(colorWarn)

	return t
}

// GlamourStyle maps the configured theme name to a glamour style,
// probing the terminal when set to auto.
func (t *Theme) GlamourStyle(configured string) string {
	switch configured {
	case "dark", "light":
		return configured
	default:
		if t.IsDark {
			return "dark"
		}
		return "light"
	}
}
