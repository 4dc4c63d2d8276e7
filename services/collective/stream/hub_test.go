// Copyright (C) 2025 Velum Labs (dev@velumlabs.net)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velumlabs/communion/services/collective/datatypes"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newHubServer serves a websocket endpoint wired into hub, mirroring how
// the route handler registers observers.
func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := hub.Add(ws)
		defer hub.Remove(client)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(nil)
	srv := newHubServer(t, hub)

	first := dial(t, srv)
	second := dial(t, srv)
	waitForClients(t, hub, 2)

	entry := datatypes.DebateEntry{
		ID:          "entry-1",
		AgentID:     datatypes.AgentHope,
		Statement:   "Every signal is a small act of faith.",
		TriggeredBy: "reaction:general",
	}
	hub.DebateAppended(entry)

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event Event
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, "debate_entry", event.Type)
		data, ok := event.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "entry-1", data["id"])
		assert.Equal(t, string(datatypes.AgentHope), data["agent_id"])
	}
}

func TestHub_AgentStatesEvent(t *testing.T) {
	hub := NewHub(nil)
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.AgentStatesChanged([]datatypes.AgentState{
		{AgentID: datatypes.AgentPrime, Resonance: 61, Conviction: 55},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "agent_states", event.Type)
	states, ok := event.Data.([]any)
	require.True(t, ok)
	require.Len(t, states, 1)
}

func TestHub_DisconnectShrinksPopulation(t *testing.T) {
	hub := NewHub(nil)
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_CloseDisconnectsClientsAndRejectsAdds(t *testing.T) {
	hub := NewHub(nil)
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Close()
	waitForClients(t, hub, 0)

	// The server read loop notices the closed connection.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// New observers after Close never join the population.
	dial(t, srv)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_BroadcastWithNoClientsIsHarmless(t *testing.T) {
	hub := NewHub(nil)
	hub.Broadcast(Event{Type: "debate_entry"})
	assert.Equal(t, 0, hub.ClientCount())
}
