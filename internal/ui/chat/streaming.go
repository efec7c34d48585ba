// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// RENDER GATE
// =============================================================================

// renderGate caps transcript redraws during streaming. Fragments can
// arrive far faster than a terminal can usefully repaint; redrawing on
// every one causes flicker and burns CPU. The gate admits a redraw at
// most once per interval and remembers whether anything was held back
// so a trailing tick can paint the rest.
type renderGate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	dirty    bool
}

// 30fps keeps streaming smooth without wasteful repaints.
const defaultFrameInterval = 33 * time.Millisecond

func newRenderGate() *renderGate {
	return &renderGate{interval: defaultFrameInterval}
}

// Admit reports whether a redraw may happen now. When denied, the gate
// marks itself dirty; Pending tells the caller a follow-up tick is
// needed.
func (g *renderGate) Admit() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if now.Sub(g.last) >= g.interval {
		g.last = now
		g.dirty = false
		return true
	}
	g.dirty = true
	return false
}

// Pending reports whether a denied redraw is still waiting.
func (g *renderGate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dirty
}

// Reset clears the gate, admitting the next redraw immediately.
func (g *renderGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = time.Time{}
	g.dirty = false
}

// streamTickCmd schedules the trailing repaint for held-back frames.
func streamTickCmd() tea.Cmd {
	return tea.Tick(defaultFrameInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
