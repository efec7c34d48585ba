// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// INDEX WATCHER
// =============================================================================

// Watcher observes external writes to the chat index file and invokes a
// callback so a running UI can refresh its chat list. Another process
// (or a second instance) writing chats.json is the last writer and
// wins; this instance only re-reads.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()
	cancel   context.CancelFunc
}

// NewWatcher creates a watcher for the store's data directory. The
// callback fires at most once per debounce window.
func NewWatcher(store *Store, debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		watcher:  fsw,
		debounce: debounce,
		onChange: onChange,
		cancel:   cancel,
	}

	// Watch the directory, not the file: atomic writes replace the file
	// by rename, which drops a watch placed on the file itself.
	if err := fsw.Add(store.Dir()); err != nil {
		fsw.Close()
		cancel()
		return nil, err
	}

	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != chatsFile {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			w.onChange()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}
