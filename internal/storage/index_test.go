// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestUpsertAndList(t *testing.T) {
	store := NewStore(t.TempDir())

	if got := store.List(); len(got) != 0 {
		t.Fatalf("fresh store List() = %d entries, want 0", len(got))
	}

	if err := store.Upsert("s1", "First chat"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert("s2", "Second chat"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	entries := store.List()
	if len(entries) != 2 {
		t.Fatalf("List() = %d entries, want 2", len(entries))
	}
	// New chats go to the front
	if entries[0].ID != "s2" || entries[1].ID != "s1" {
		t.Errorf("order = [%s %s], want [s2 s1]", entries[0].ID, entries[1].ID)
	}
}

func TestUpsertSameTitleNoWrite(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Upsert("s1", "Title"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	info1, err := os.Stat(filepath.Join(store.Dir(), chatsFile))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if err := store.Upsert("s1", "Title"); err != nil {
		t.Fatalf("repeat Upsert failed: %v", err)
	}
	info2, _ := os.Stat(filepath.Join(store.Dir(), chatsFile))
	if !info2.ModTime().Equal(info1.ModTime()) {
		t.Error("identical upsert rewrote the index file")
	}

	// A changed title does write, without duplicating the entry
	if err := store.Upsert("s1", "New title"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	entries := store.List()
	if len(entries) != 1 {
		t.Fatalf("List() = %d entries, want 1", len(entries))
	}
	if entries[0].Title != "New title" {
		t.Errorf("title = %q, want %q", entries[0].Title, "New title")
	}
}

func TestUpsertEmptyID(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Upsert("", "Title"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if got := store.List(); len(got) != 0 {
		t.Errorf("empty id created an entry: %+v", got)
	}
}

func TestRemove(t *testing.T) {
	store := NewStore(t.TempDir())
	store.Upsert("s1", "one")
	store.Upsert("s2", "two")

	if err := store.Remove("s1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	entries := store.List()
	if len(entries) != 1 || entries[0].ID != "s2" {
		t.Errorf("after Remove List() = %+v, want only s2", entries)
	}

	// Removing an unknown id is a no-op
	if err := store.Remove("ghost"); err != nil {
		t.Errorf("Remove(ghost) failed: %v", err)
	}
}

func TestRemoveAllIdempotent(t *testing.T) {
	store := NewStore(t.TempDir())
	store.Upsert("s1", "one")

	if err := store.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if got := store.List(); len(got) != 0 {
		t.Errorf("List() after RemoveAll = %d entries, want 0", len(got))
	}
	if err := store.RemoveAll(); err != nil {
		t.Errorf("second RemoveAll failed: %v", err)
	}
}

func TestCorruptIndexDegradesToEmpty(t *testing.T) {
	store := NewStore(t.TempDir())
	path := filepath.Join(store.Dir(), chatsFile)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if got := store.List(); len(got) != 0 {
		t.Fatalf("corrupt index List() = %+v, want empty", got)
	}

	// The next write repairs the file
	if err := store.Upsert("s1", "repaired"); err != nil {
		t.Fatalf("Upsert after corruption failed: %v", err)
	}
	entries := store.List()
	if len(entries) != 1 || entries[0].ID != "s1" {
		t.Errorf("List() after repair = %+v, want [s1]", entries)
	}
}

func TestLastSessionID(t *testing.T) {
	store := NewStore(t.TempDir())

	if got := store.LastSessionID(); got != "" {
		t.Errorf("fresh store LastSessionID = %q, want empty", got)
	}

	if err := store.SetLastSessionID("abc-123"); err != nil {
		t.Fatalf("SetLastSessionID failed: %v", err)
	}
	if got := store.LastSessionID(); got != "abc-123" {
		t.Errorf("LastSessionID = %q, want abc-123", got)
	}

	if err := store.ClearLastSessionID(); err != nil {
		t.Fatalf("ClearLastSessionID failed: %v", err)
	}
	if got := store.LastSessionID(); got != "" {
		t.Errorf("LastSessionID after clear = %q, want empty", got)
	}

	// Clearing twice is fine
	if err := store.ClearLastSessionID(); err != nil {
		t.Errorf("second ClearLastSessionID failed: %v", err)
	}
}

func TestWatcherSeesExternalWrite(t *testing.T) {
	store := NewStore(t.TempDir())
	store.Upsert("s1", "one")

	changed := make(chan struct{}, 1)
	w, err := NewWatcher(store, 20*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	// Simulate another process rewriting the index
	other := NewStore(store.Dir())
	if err := other.Upsert("s2", "from elsewhere"); err != nil {
		t.Fatalf("external Upsert failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the external write")
	}

	entries := store.List()
	if len(entries) != 2 {
		t.Errorf("List() = %d entries after external write, want 2", len(entries))
	}
}
