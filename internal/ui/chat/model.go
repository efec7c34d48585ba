// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hollandm/ragchat-tui/internal/api"
	"github.com/hollandm/ragchat-tui/internal/config"
	"github.com/hollandm/ragchat-tui/internal/model"
	"github.com/hollandm/ragchat-tui/internal/session"
	"github.com/hollandm/ragchat-tui/internal/storage"
	"github.com/hollandm/ragchat-tui/internal/ui/components"
	"github.com/hollandm/ragchat-tui/internal/ui/styles"
	"github.com/hollandm/ragchat-tui/internal/util"
)

const sidebarWidth = 32

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. It renders
// coordinator snapshots and translates key presses into the
// coordinator's operations; it never mutates session state directly.
type Model struct {
	coordinator *session.Coordinator
	store       *storage.Store
	api         *api.Client
	theme       *styles.Theme
	cfg         *config.Config

	viewport  viewport.Model
	input     textinput.Model
	spin      spinner.Model
	statusBar *components.StatusBar
	sidebar   *components.Sidebar
	renderer  *glamour.TermRenderer
	gate      *renderGate

	width  int
	height int
	ready  bool

	showSidebar    bool
	sidebarFocused bool
	tickScheduled  bool

	notice      string
	noticeIsErr bool

	// retrySessionID is set when a history load failed, so ctrl+r can
	// try the same session again.
	retrySessionID string
}

// New creates the chat view.
func New(coord *session.Coordinator, store *storage.Store, client *api.Client, theme *styles.Theme, cfg *config.Config) *Model {
	input := textinput.New()
	input.Placeholder = "Ask something..."
	input.Prompt = theme.InputPrompt.Render("> ")
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = theme.Spinner

	m := &Model{
		coordinator: coord,
		store:       store,
		api:         client,
		theme:       theme,
		cfg:         cfg,
		input:       input,
		spin:        spin,
		statusBar:   components.NewStatusBar(theme),
		sidebar:     components.NewSidebar(theme, sidebarWidth),
		gate:        newRenderGate(),
		showSidebar: cfg.UI.ShowSidebar,
	}
	m.sidebar.SetEntries(store.List())
	return m
}

// Init restores the last active session, if one is recorded.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spin.Tick}
	if last := m.store.LastSessionID(); last != "" {
		cmds = append(cmds, m.loadHistoryCmd(last))
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// UPDATE
// =============================================================================

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateChangedMsg:
		snap := m.coordinator.State()
		if snap.Loading && !m.gate.Admit() {
			// Too soon to repaint; a trailing tick picks it up.
			if m.tickScheduled {
				return m, nil
			}
			m.tickScheduled = true
			return m, streamTickCmd()
		}
		m.refreshTranscript()
		return m, nil

	case StreamTickMsg:
		m.tickScheduled = false
		if m.gate.Pending() {
			m.gate.Reset()
			m.refreshTranscript()
		}
		if m.coordinator.State().Loading {
			m.tickScheduled = true
			return m, streamTickCmd()
		}
		return m, nil

	case ChatsChangedMsg:
		m.sidebar.SetEntries(m.store.List())
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.retrySessionID = msg.sessionID
			m.setNotice(fmt.Sprintf("Could not load history: %v (ctrl+r to retry)", msg.err), true)
			return m, nil
		}
		m.retrySessionID = ""
		m.clearNotice()
		m.sidebarFocused = false
		m.refreshTranscript()
		return m, nil

	case chatDeletedMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Delete failed: %v", msg.err), true)
			return m, nil
		}
		m.sidebar.SetEntries(m.store.List())
		snap := m.coordinator.State()
		if msg.sessionID == "" || msg.sessionID == snap.SessionID {
			// The open chat is gone; start fresh.
			m.coordinator.NewChat()
			m.refreshTranscript()
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Export failed: %v", msg.err), true)
		} else {
			m.setNotice("Exported to "+msg.path, false)
		}
		return m, nil

	case spinner.TickMsg:
		if m.coordinator.State().Loading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, m.spin.Tick
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+n":
		m.coordinator.NewChat()
		m.clearNotice()
		m.retrySessionID = ""
		m.input.Reset()
		m.refreshTranscript()
		return m, nil

	case "ctrl+b":
		m.showSidebar = !m.showSidebar
		m.sidebarFocused = m.showSidebar
		if m.sidebarFocused {
			m.sidebar.SetEntries(m.store.List())
			m.input.Blur()
		} else {
			m.input.Focus()
		}
		m.resize(m.width, m.height)
		return m, nil

	case "ctrl+r":
		if m.retrySessionID != "" {
			id := m.retrySessionID
			m.setNotice("Retrying...", false)
			return m, m.loadHistoryCmd(id)
		}
		return m, nil
	}

	if m.sidebarFocused {
		return m.handleSidebarKey(msg)
	}

	switch msg.String() {
	case "enter":
		return m.submit()
	case "esc":
		m.clearNotice()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.sidebar.CursorUp()
	case "down", "j":
		m.sidebar.CursorDown()
	case "enter":
		if entry, ok := m.sidebar.Selected(); ok {
			m.setNotice("Loading "+entry.Title+"...", false)
			return m, m.loadHistoryCmd(entry.ID)
		}
	case "d":
		if entry, ok := m.sidebar.Selected(); ok {
			return m, m.deleteChatCmd(entry)
		}
	case "D":
		entries := m.store.List()
		if len(entries) > 0 {
			return m, m.deleteAllChatsCmd(entries)
		}
	case "q":
		// Quitting on q only works here; in the input line the rune
		// belongs to the message being typed.
		return m, tea.Quit
	case "esc":
		m.sidebarFocused = false
		m.input.Focus()
	}
	return m, nil
}

// submit handles the enter key in the input line: local commands first,
// everything else goes to the coordinator.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()

	if strings.TrimSpace(text) == "/export" {
		m.input.Reset()
		return m, m.exportCmd()
	}

	err := m.coordinator.SendMessage(text)
	switch {
	case err == nil:
		m.input.Reset()
		m.clearNotice()
		m.gate.Reset()
		m.refreshTranscript()
		return m, nil
	case errors.Is(err, session.ErrBusy):
		m.setNotice("Still waiting for the previous response", true)
		return m, nil
	case errors.Is(err, session.ErrNotConnected):
		m.setNotice("Not connected to server", true)
		return m, nil
	default:
		m.setNotice(fmt.Sprintf("Send failed: %v", err), true)
		return m, nil
	}
}

// =============================================================================
// LAYOUT AND HELPERS
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	contentWidth := width
	if m.showSidebar {
		contentWidth -= sidebarWidth
	}
	// Rows below the transcript: input, status bar, optional notice
	contentHeight := height - 3

	if !m.ready {
		m.viewport = viewport.New(contentWidth, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = contentHeight
	}
	m.input.Width = contentWidth - 4

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle(m.cfg.UI.Theme)),
		glamour.WithWordWrap(contentWidth-2),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.refreshTranscript()
}

// refreshTranscript re-renders the transcript from a fresh snapshot
// and keeps the view pinned to the bottom.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	snap := m.coordinator.State()
	m.viewport.SetContent(m.renderTranscript(snap))
	m.viewport.GotoBottom()
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeIsErr = isErr
}

func (m *Model) clearNotice() {
	m.notice = ""
	m.noticeIsErr = false
}

// exportTranscript writes the current conversation as Markdown under
// the data directory and returns the path.
func (m *Model) exportTranscript() (string, error) {
	snap := m.coordinator.State()
	if len(snap.Messages) == 0 {
		return "", errors.New("nothing to export")
	}

	title := "Conversation"
	for _, msg := range snap.Messages {
		if msg.Role == model.RoleUser {
			title = model.DeriveTitle(msg.Content)
			break
		}
	}

	name := fmt.Sprintf("chat-%s.md", time.Now().Format("20060102-150405"))
	path := filepath.Join(m.store.Dir(), "exports", name)
	content := model.ExportMarkdown(title, snap.Messages)
	if err := util.AtomicWriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// =============================================================================
// VIEW
// =============================================================================

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	snap := m.coordinator.State()

	var rows []string
	rows = append(rows, m.viewport.View())

	if m.notice != "" {
		style := m.theme.NoticeWarning
		if m.noticeIsErr {
			style = m.theme.NoticeError
		}
		rows = append(rows, style.Render(util.TruncateWidth(m.notice, m.viewport.Width)))
	} else if snap.Loading {
		rows = append(rows, m.spin.View()+m.theme.ShortcutDesc.Render(" thinking..."))
	} else {
		rows = append(rows, "")
	}

	rows = append(rows, m.input.View())
	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	if m.showSidebar {
		side := m.sidebar.Render(m.height - 1)
		content = lipgloss.JoinHorizontal(lipgloss.Top, side, content)
	}

	status := m.statusBar.Render(m.width, snap.Connected, snap.SessionID, snap.Loading)
	return lipgloss.JoinVertical(lipgloss.Left, content, status)
}
