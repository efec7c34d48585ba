// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ragchat-tui is a terminal client for a retrieval-augmented chat
// backend. It streams responses over a persistent WebSocket, keeps a
// local index of past chats, and renders everything in a Bubble Tea UI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hollandm/ragchat-tui/internal/api"
	"github.com/hollandm/ragchat-tui/internal/config"
	"github.com/hollandm/ragchat-tui/internal/model"
	"github.com/hollandm/ragchat-tui/internal/session"
	"github.com/hollandm/ragchat-tui/internal/storage"
	"github.com/hollandm/ragchat-tui/internal/transport"
	"github.com/hollandm/ragchat-tui/internal/ui/chat"
	"github.com/hollandm/ragchat-tui/internal/ui/styles"
)

const version = "0.3.0"

const indexWatchDebounce = 200 * time.Millisecond

func main() {
	serverFlag := flag.String("server", "", "backend URL (overrides config)")
	messageFlag := flag.String("m", "", "send one message over REST and print the reply (no TUI)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("ragchat-tui " + version)
		return
	}

	cfg := config.Global()
	if *serverFlag != "" {
		cfg.ServerURL = *serverFlag
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	var err error
	if *messageFlag != "" {
		err = runOneShot(cfg, *messageFlag)
	} else {
		err = run(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runOneShot sends a single message over the REST path, without the
// streaming transport or the TUI. The exchange still joins the last
// active session and shows up in the chat index like any other.
func runOneShot(cfg *config.Config, text string) error {
	store := storage.NewStore(cfg.ResolveDataDir())
	client := api.NewClient(httpURL(cfg.ServerURL))

	ctx := context.Background()
	if cfg.ExchangeTimeout() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ExchangeTimeout())
		defer cancel()
	}

	sessionID, reply, err := client.SendMessage(ctx, store.LastSessionID(), text)
	if err != nil {
		return err
	}

	if sessionID != "" {
		store.SetLastSessionID(sessionID)
		// Only a brand-new session gets a title here; an existing
		// chat keeps the one derived from its first message.
		known := false
		for _, e := range store.List() {
			if e.ID == sessionID {
				known = true
				break
			}
		}
		if !known {
			store.Upsert(sessionID, model.DeriveTitle(text))
		}
	}

	fmt.Println(reply.Content)
	for _, src := range reply.Sources {
		fmt.Printf("  source: %s %s\n", src.Title, src.URL)
	}
	return nil
}

func run(cfg *config.Config) error {
	store := storage.NewStore(cfg.ResolveDataDir())

	tr, err := transport.New(cfg.ServerURL)
	if err != nil {
		return err
	}
	defer tr.Disconnect()

	client := api.NewClient(httpURL(cfg.ServerURL))

	var program *tea.Program
	coord := session.New(tr, client, store,
		session.WithExchangeTimeout(cfg.ExchangeTimeout()),
		session.WithNotify(func() {
			if program != nil {
				program.Send(chat.StateChangedMsg{})
			}
		}),
	)

	theme := styles.NewTheme()
	view := chat.New(coord, store, client, theme, cfg)
	program = tea.NewProgram(view, tea.WithAltScreen())

	// The UI starts either way; a failed connect just shows as
	// disconnected until the user restarts.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := tr.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	cancel()

	// Event pump: the single goroutine that feeds transport events
	// through the coordinator, then wakes the UI.
	go func() {
		for ev := range tr.Events() {
			coord.HandleEvent(ev)
			program.Send(chat.StateChangedMsg{})
		}
	}()

	// Refresh the chat list when another process rewrites the index.
	watcher, err := storage.NewWatcher(store, indexWatchDebounce, func() {
		program.Send(chat.ChatsChangedMsg{})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: chat list will not refresh on external changes: %v\n", err)
	} else {
		defer watcher.Close()
	}

	_, err = program.Run()
	return err
}

// httpURL normalizes a configured ws/wss URL to its http form for the
// REST client.
func httpURL(serverURL string) string {
	if strings.HasPrefix(serverURL, "ws://") {
		return "http://" + strings.TrimPrefix(serverURL, "ws://")
	}
	if strings.HasPrefix(serverURL, "wss://") {
		return "https://" + strings.TrimPrefix(serverURL, "wss://")
	}
	return serverURL
}
