// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"codeberg.org/oliverandrich/assettag/internal/models"
)

const clientBuffer = 16

// Client is one open event stream. Tabs of the same browser share a
// session and each get their own Client.
type Client struct {
	Session string
	events  chan Event
}

// Events delivers the stream. It is closed on Unsubscribe.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Hub routes events to subscribed clients. Slow clients lose events
// instead of blocking publishers.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
	seq      atomic.Uint64
	dropped  atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*Client]struct{})}
}

// Subscribe opens a stream for the session.
func (h *Hub) Subscribe(session string) *Client {
	c := &Client{Session: session, events: make(chan Event, clientBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[session] == nil {
		h.sessions[session] = make(map[*Client]struct{})
	}
	h.sessions[session][c] = struct{}{}
	return c
}

// Unsubscribe closes the client's stream. Calling it twice is a no-op.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[c.Session]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.sessions, c.Session)
	}
	close(c.events)
}

// Publish sends e to every client of one session.
func (h *Hub) Publish(session string, e Event) {
	e.ID = h.seq.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.sessions[session] {
		h.deliver(c, e)
	}
}

// Broadcast sends e to every client.
func (h *Hub) Broadcast(e Event) {
	e.ID = h.seq.Add(1)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.sessions {
		for c := range clients {
			h.deliver(c, e)
		}
	}
}

// deliver must run under the read lock so the channel cannot be closed concurrently.
func (h *Hub) deliver(c *Client, e Event) {
	select {
	case c.events <- e:
	default:
		h.dropped.Add(1)
	}
}

// CodeChanged broadcasts the new state of a code.
func (h *Hub) CodeChanged(code *models.Code) {
	e, err := JSONEvent(EventCode, code)
	if err != nil {
		slog.Error("failed to encode code event", "code", code.ID, "error", err)
		return
	}
	h.Broadcast(e)
}

// ScanResult publishes the outcome of a decode to the scanning session.
func (h *Hub) ScanResult(session string, result any) {
	e, err := JSONEvent(EventScan, result)
	if err != nil {
		slog.Error("failed to encode scan event", "session", session, "error", err)
		return
	}
	h.Publish(session, e)
}

// ClientCount returns the number of open streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.sessions {
		n += len(clients)
	}
	return n
}

// SessionCount returns the number of sessions with at least one open stream.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Dropped counts events discarded because a client buffer was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
