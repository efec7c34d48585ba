// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the chat index: the set of known sessions
// with their titles, and the id of the last active session. The index
// lives in two files under the data directory, mirroring the two keys a
// browser client would keep in localStorage:
//
//	chats.json   JSON array of chat entries, newest first
//	session      plain-text id of the last active session
//
// Reads are read-through with no caching beyond the call. A malformed
// chats.json degrades to an empty index; the next successful write
// repairs the file.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hollandm/ragchat-tui/internal/model"
	"github.com/hollandm/ragchat-tui/internal/util"
)

const (
	chatsFile   = "chats.json"
	sessionFile = "session"
)

// Store is the on-disk chat index.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on
// first write, not here.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) chatsPath() string {
	return filepath.Join(s.dir, chatsFile)
}

func (s *Store) sessionPath() string {
	return filepath.Join(s.dir, sessionFile)
}

// ============================================================================
// CHAT LIST
// ============================================================================

// List returns all known chats, newest first. A missing or corrupt
// index file yields an empty list, never an error: local corruption is
// recovered by resetting, not propagated.
func (s *Store) List() []model.ChatEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load reads chats.json without locking. Callers hold s.mu.
func (s *Store) load() []model.ChatEntry {
	data, err := os.ReadFile(s.chatsPath())
	if err != nil {
		return nil
	}
	var entries []model.ChatEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		fmt.Fprintf(os.Stderr, "warning: chat index corrupt, resetting: %v\n", err)
		return nil
	}
	return entries
}

func (s *Store) save(entries []model.ChatEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chat index: %w", err)
	}
	if err := util.AtomicWriteFile(s.chatsPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write chat index: %w", err)
	}
	return nil
}

// Upsert records a session in the index. A new session is inserted at
// the front of the list; an existing one has its title updated only
// when it actually changed, so repeated upserts with the same title
// cause no writes.
func (s *Store) Upsert(id, title string) error {
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	for i, e := range entries {
		if e.ID != id {
			continue
		}
		if e.Title == title {
			return nil
		}
		entries[i].Title = title
		return s.save(entries)
	}

	entry := model.ChatEntry{ID: id, Title: title, Timestamp: time.Now()}
	entries = append([]model.ChatEntry{entry}, entries...)
	return s.save(entries)
}

// Remove deletes a session from the index. Removing an unknown id is a
// no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	return s.save(kept)
}

// RemoveAll clears the whole index. Idempotent.
func (s *Store) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save([]model.ChatEntry{})
}

// ============================================================================
// LAST ACTIVE SESSION
// ============================================================================

// LastSessionID returns the persisted id of the last active session, or
// "" when none is stored.
func (s *Store) LastSessionID() string {
	data, err := os.ReadFile(s.sessionPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetLastSessionID persists the id of the active session so the next
// launch can resume it.
func (s *Store) SetLastSessionID(id string) error {
	if id == "" {
		return s.ClearLastSessionID()
	}
	if err := util.AtomicWriteFile(s.sessionPath(), []byte(id), 0644); err != nil {
		return fmt.Errorf("failed to write session pointer: %w", err)
	}
	return nil
}

// ClearLastSessionID forgets the last active session. Idempotent.
func (s *Store) ClearLastSessionID() error {
	if err := os.Remove(s.sessionPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session pointer: %w", err)
	}
	return nil
}
