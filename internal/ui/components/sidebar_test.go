// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/hollandm/ragchat-tui/internal/model"
	"github.com/hollandm/ragchat-tui/internal/ui/styles"
)

func testEntries(now time.Time) []model.ChatEntry {
	return []model.ChatEntry{
		{ID: "a", Title: "Fresh chat", Timestamp: now.Add(-time.Hour)},
		{ID: "b", Title: "Yesterday's chat", Timestamp: now.Add(-26 * time.Hour)},
		{ID: "c", Title: "Ancient chat", Timestamp: now.AddDate(0, -6, 0)},
	}
}

func TestSidebarCursor(t *testing.T) {
	sb := NewSidebar(styles.NewTheme(), 32)
	sb.SetEntries(testEntries(time.Now()))

	entry, ok := sb.Selected()
	if !ok || entry.ID != "a" {
		t.Fatalf("initial selection = %+v, want a", entry)
	}

	sb.CursorDown()
	sb.CursorDown()
	if entry, _ := sb.Selected(); entry.ID != "c" {
		t.Errorf("selection after two downs = %s, want c", entry.ID)
	}

	// Cursor clamps at both ends
	sb.CursorDown()
	if entry, _ := sb.Selected(); entry.ID != "c" {
		t.Errorf("cursor ran past the end")
	}
	sb.CursorUp()
	sb.CursorUp()
	sb.CursorUp()
	if entry, _ := sb.Selected(); entry.ID != "a" {
		t.Errorf("cursor ran past the start")
	}
}

func TestSidebarCursorClampsOnShrink(t *testing.T) {
	sb := NewSidebar(styles.NewTheme(), 32)
	sb.SetEntries(testEntries(time.Now()))
	sb.CursorDown()
	sb.CursorDown()

	sb.SetEntries(testEntries(time.Now())[:1])
	if entry, ok := sb.Selected(); !ok || entry.ID != "a" {
		t.Errorf("selection after shrink = %+v, want a", entry)
	}
}

func TestSidebarSelectionMatchesDisplayOrder(t *testing.T) {
	now := time.Now()
	// Deliberately not timestamp-descending, as an external writer
	// might leave the index
	entries := []model.ChatEntry{
		{ID: "old", Title: "Old chat", Timestamp: now.AddDate(0, -2, 0)},
		{ID: "new", Title: "New chat", Timestamp: now.Add(-time.Hour)},
	}

	sb := NewSidebar(styles.NewTheme(), 32)
	sb.SetEntries(entries)

	// Today renders above Older, so the first selectable chat is the
	// newer one regardless of input order
	if entry, _ := sb.Selected(); entry.ID != "new" {
		t.Errorf("first selection = %s, want new", entry.ID)
	}
	sb.CursorDown()
	if entry, _ := sb.Selected(); entry.ID != "old" {
		t.Errorf("second selection = %s, want old", entry.ID)
	}
}

func TestSidebarRenderGroupsByDate(t *testing.T) {
	sb := NewSidebar(styles.NewTheme(), 32)
	sb.SetEntries(testEntries(time.Now()))

	out := sb.Render(30)
	for _, want := range []string{"Today", "Yesterday", "Older", "Fresh chat", "Ancient chat"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
}

func TestSidebarRenderEmpty(t *testing.T) {
	sb := NewSidebar(styles.NewTheme(), 32)
	out := sb.Render(30)
	if !strings.Contains(out, "no chats yet") {
		t.Error("empty sidebar missing placeholder")
	}
	if _, ok := sb.Selected(); ok {
		t.Error("Selected reported an entry for an empty list")
	}
}

func TestStatusBarStates(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())

	out := bar.Render(120, true, "abcdef123456", false)
	if !strings.Contains(out, "connected") {
		t.Error("connected state missing")
	}
	if !strings.Contains(out, "abcdef12") {
		t.Error("session id missing or not truncated form")
	}

	out = bar.Render(120, false, "", false)
	if !strings.Contains(out, "disconnected") {
		t.Error("disconnected state missing")
	}

	// Narrow widths drop the shortcut hints instead of overflowing
	out = bar.Render(20, true, "", false)
	if out == "" {
		t.Error("narrow render produced nothing")
	}
}
