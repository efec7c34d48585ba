// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/hollandm/ragchat-tui/internal/model"
	"github.com/hollandm/ragchat-tui/internal/ui/styles"
	"github.com/hollandm/ragchat-tui/internal/util"
)

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// Sidebar renders the chat list grouped into date buckets and tracks
// the cursor for keyboard navigation.
type Sidebar struct {
	theme *styles.Theme

	// entries holds the chats in display order: flattened bucket by
	// bucket, so the cursor, the highlight, and Selected all index
	// the same list even when the stored index was not sorted.
	entries []model.ChatEntry
	now     time.Time
	cursor  int
	width   int
}

// NewSidebar creates a sidebar using the given theme.
func NewSidebar(theme *styles.Theme, width int) *Sidebar {
	return &Sidebar{theme: theme, width: width}
}

// SetEntries replaces the listed chats, clamping the cursor. Entries
// are flattened into the order Render draws them.
func (s *Sidebar) SetEntries(entries []model.ChatEntry) {
	s.now = time.Now()
	groups := model.GroupByBucket(entries, s.now)
	flat := make([]model.ChatEntry, 0, len(entries))
	for _, bucket := range model.Buckets() {
		flat = append(flat, groups[bucket]...)
	}
	s.entries = flat
	if s.cursor >= len(flat) {
		s.cursor = len(flat) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// Len returns the number of listed chats.
func (s *Sidebar) Len() int { return len(s.entries) }

// CursorUp moves the selection up one chat.
func (s *Sidebar) CursorUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// CursorDown moves the selection down one chat.
func (s *Sidebar) CursorDown() {
	if s.cursor < len(s.entries)-1 {
		s.cursor++
	}
}

// Selected returns the chat under the cursor, if any.
func (s *Sidebar) Selected() (model.ChatEntry, bool) {
	if len(s.entries) == 0 {
		return model.ChatEntry{}, false
	}
	return s.entries[s.cursor], true
}

// Render draws the sidebar at the given height.
func (s *Sidebar) Render(height int) string {
	t := s.theme
	var b strings.Builder

	b.WriteString(t.SidebarSelected.Render("Chats"))
	b.WriteString("\n")

	if len(s.entries) == 0 {
		b.WriteString(t.ShortcutDesc.Render("no chats yet"))
		return t.Sidebar.Width(s.width).Height(height).Render(b.String())
	}

	// Group with the same reference time SetEntries used, so the
	// drawn order stays identical to s.entries.
	groups := model.GroupByBucket(s.entries, s.now)
	idx := 0
	for _, bucket := range model.Buckets() {
		chats := groups[bucket]
		if len(chats) == 0 {
			continue
		}
		b.WriteString(t.SidebarHeading.Render(bucket.Label()))
		b.WriteString("\n")
		for _, entry := range chats {
			title := util.TruncateWidth(entry.Title, s.width-4)
			if title == "" {
				title = "(untitled)"
			}
			if idx == s.cursor {
				b.WriteString(t.SidebarSelected.Render("> " + title))
			} else {
				b.WriteString(t.SidebarItem.Render("  " + title))
			}
			b.WriteString("\n")
			idx++
		}
	}

	b.WriteString("\n")
	b.WriteString(t.ShortcutDesc.Render("enter open  d delete  D delete all"))

	return t.Sidebar.Width(s.width).Height(height).Render(b.String())
}
