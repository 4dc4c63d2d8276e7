// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stream pushes debate-log and agent-state changes to connected
// websocket observers. Observers are pure spectators: a broadcast never
// blocks the writer, and a client that cannot keep up is disconnected
// rather than backpressuring the orchestration path.
package stream

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/velumlabs/communion/services/collective/datatypes"
	"github.com/velumlabs/communion/services/collective/observability"
)

// Event is one push message to live observers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const clientQueueSize = 32

// Client is one connected observer. Writes go through a buffered queue
// serviced by a dedicated writer goroutine.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan Event
	once sync.Once
}

func (c *Client) writePump(hub *Hub) {
	defer c.conn.Close()
	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			slog.Debug("stream client write failed", "client", c.id, "error", err)
			hub.Remove(c)
			return
		}
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans events out to every connected client.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
	metrics *observability.Metrics
}

// NewHub creates an empty hub. metrics may be nil.
func NewHub(metrics *observability.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		metrics: metrics,
	}
}

// Add registers an upgraded connection and starts its writer. The caller
// keeps reading from the connection to detect disconnects and must call
// Remove when the read loop ends.
func (h *Hub) Add(conn *websocket.Conn) *Client {
	client := &Client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan Event, clientQueueSize),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		client.close()
		return client
	}
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.metrics.StreamClientConnected(1)
	go client.writePump(h)
	slog.Info("stream client connected", "client", client.id)
	return client
}

// Remove unregisters a client and releases its writer.
func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	_, present := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if present {
		h.metrics.StreamClientConnected(-1)
		slog.Info("stream client disconnected", "client", client.id)
	}
	client.close()
}

// Broadcast queues an event for every client. A client whose queue is
// full is dropped; the sender never waits.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	var stale []*Client
	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.Unlock()
	for _, client := range stale {
		slog.Warn("dropping slow stream client", "client", client.id)
		h.Remove(client)
	}
}

// Close disconnects every client. Further Adds become no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()
	for _, client := range clients {
		h.Remove(client)
	}
}

// ClientCount reports the current observer population.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// DebateAppended implements engine.Broadcaster.
func (h *Hub) DebateAppended(entry datatypes.DebateEntry) {
	h.Broadcast(Event{Type: "debate_entry", Data: entry})
}

// AgentStatesChanged implements engine.Broadcaster.
func (h *Hub) AgentStatesChanged(states []datatypes.AgentState) {
	h.Broadcast(Event{Type: "agent_states", Data: states})
}
