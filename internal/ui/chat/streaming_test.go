// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"
)

func TestRenderGateAdmitsFirstFrame(t *testing.T) {
	g := newRenderGate()
	if !g.Admit() {
		t.Error("first frame denied")
	}
}

func TestRenderGateThrottles(t *testing.T) {
	g := newRenderGate()
	g.Admit()

	// An immediate second frame is held back and marked pending
	if g.Admit() {
		t.Error("second immediate frame admitted")
	}
	if !g.Pending() {
		t.Error("denied frame not marked pending")
	}

	// After the interval, frames flow again
	time.Sleep(defaultFrameInterval + 5*time.Millisecond)
	if !g.Admit() {
		t.Error("frame denied after interval elapsed")
	}
	if g.Pending() {
		t.Error("pending flag survived an admitted frame")
	}
}

func TestRenderGateReset(t *testing.T) {
	g := newRenderGate()
	g.Admit()
	g.Admit() // denied, pending

	g.Reset()
	if g.Pending() {
		t.Error("Reset kept the pending flag")
	}
	if !g.Admit() {
		t.Error("frame denied right after Reset")
	}
}
