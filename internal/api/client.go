// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the REST client for the chat backend: history
// retrieval, the non-streaming send fallback, and session deletion.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hollandm/ragchat-tui/internal/model"
)

// ============================================================================
// ERRORS
// ============================================================================

var (
	// ErrHistoryUnavailable indicates the backend could not produce the
	// session history. The caller's local log must stay untouched.
	ErrHistoryUnavailable = errors.New("session history unavailable")

	// ErrBackend indicates the backend rejected a request.
	ErrBackend = errors.New("backend request failed")
)

// ============================================================================
// CLIENT
// ============================================================================

const (
	requestTimeout  = 30 * time.Second
	maxIdleConns    = 10
	idleConnTimeout = 90 * time.Second
)

// Client talks to the backend's REST endpoints. One Client is shared by
// the whole process; the underlying http.Client pools connections.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a REST client for the backend at baseURL
// (scheme://host:port, no trailing slash required).
func NewClient(baseURL string) *Client {
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        maxIdleConns,
				MaxIdleConnsPerHost: maxIdleConns,
				IdleConnTimeout:     idleConnTimeout,
			},
		},
	}
}

// historyResponse is the body of GET /api/session/{id}/history.
type historyResponse struct {
	SessionID string          `json:"sessionId"`
	Messages  []model.Message `json:"messages"`
}

// History fetches the full ordered message log for a session. Any
// failure, transport or backend, maps to ErrHistoryUnavailable so the
// caller can keep its current log and offer a retry.
func (c *Client) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	url := fmt.Sprintf("%s/api/session/%s/history", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrHistoryUnavailable, decodeError(resp))
	}

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrHistoryUnavailable, err)
	}
	return body.Messages, nil
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// chatResponse is the body of a successful POST /api/chat.
type chatResponse struct {
	SessionID string        `json:"sessionId"`
	Response  model.Message `json:"response"`
}

// SendMessage sends a message over the non-streaming REST path and
// returns the session id and the complete assistant response. This is
// the fallback when the streaming transport is unavailable.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (string, model.Message, error) {
	payload, err := json.Marshal(chatRequest{SessionID: sessionID, Message: message})
	if err != nil {
		return "", model.Message{}, fmt.Errorf("%w: encoding request: %v", ErrBackend, err)
	}

	url := c.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", model.Message{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", model.Message{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", model.Message{}, fmt.Errorf("%w: %s", ErrBackend, decodeError(resp))
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", model.Message{}, fmt.Errorf("%w: decoding response: %v", ErrBackend, err)
	}
	return body.SessionID, body.Response, nil
}

// ClearSession deletes a session's log on the backend, used when a chat
// is removed from the sidebar. A 404 is treated as success: the session
// is gone either way.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	url := fmt.Sprintf("%s/api/session/%s", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrBackend, decodeError(resp))
	}
	return nil
}

// decodeError extracts the backend's {"error": "..."} envelope, falling
// back to the HTTP status when the body is not in that shape.
func decodeError(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			return envelope.Error
		}
	}
	return resp.Status
}
