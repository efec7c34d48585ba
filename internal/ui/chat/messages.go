// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI: the message
// transcript, the input line, and the sidebar interactions.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hollandm/ragchat-tui/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================

// StateChangedMsg signals that the coordinator's state changed outside
// the Bubble Tea loop (a transport event or the exchange timeout). The
// model re-reads its snapshot.
type StateChangedMsg struct{}

// ChatsChangedMsg signals that the chat index changed on disk, either
// through this process or an external writer.
type ChatsChangedMsg struct{}

// StreamTickMsg paces transcript redraws while a response streams.
type StreamTickMsg struct{ Time time.Time }

// historyLoadedMsg reports the outcome of a history load.
type historyLoadedMsg struct {
	sessionID string
	err       error
}

// chatDeletedMsg reports the outcome of deleting one chat or all chats.
type chatDeletedMsg struct {
	sessionID string // empty when all chats were deleted
	err       error
}

// exportDoneMsg reports the outcome of a transcript export.
type exportDoneMsg struct {
	path string
	err  error
}

// =============================================================================
// COMMANDS
// =============================================================================

const requestTimeout = 30 * time.Second

func (m *Model) loadHistoryCmd(sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := m.coordinator.LoadHistory(ctx, sessionID)
		return historyLoadedMsg{sessionID: sessionID, err: err}
	}
}

func (m *Model) deleteChatCmd(entry model.ChatEntry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		// Backend first; a failure leaves the local entry in place so
		// the user can retry.
		if err := m.api.ClearSession(ctx, entry.ID); err != nil {
			return chatDeletedMsg{sessionID: entry.ID, err: err}
		}
		return chatDeletedMsg{sessionID: entry.ID, err: m.store.Remove(entry.ID)}
	}
}

func (m *Model) deleteAllChatsCmd(entries []model.ChatEntry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		for _, entry := range entries {
			if err := m.api.ClearSession(ctx, entry.ID); err != nil {
				return chatDeletedMsg{err: err}
			}
		}
		return chatDeletedMsg{err: m.store.RemoveAll()}
	}
}

func (m *Model) exportCmd() tea.Cmd {
	return func() tea.Msg {
		path, err := m.exportTranscript()
		return exportDoneMsg{path: path, err: err}
	}
}
