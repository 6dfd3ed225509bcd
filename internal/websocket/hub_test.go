package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chatrelay-be/internal/coordinator"
	"chatrelay-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil, "test", logger.NewNopLogger())
	go hub.Run(ctx)
	return hub
}

func TestHubDeliversOnlyToTargetUser(t *testing.T) {
	hub := startHub(t)
	alice := &Client{Hub: hub, UserID: "alice", Send: make(chan []byte, 1)}
	bob := &Client{Hub: hub, UserID: "bob", Send: make(chan []byte, 1)}
	hub.register <- alice
	hub.register <- bob
	require.Eventually(t, func() bool { return hub.Connected("alice") == 1 && hub.Connected("bob") == 1 }, time.Second, time.Millisecond)

	hub.Send("alice", coordinator.Notification{UserId: "alice", Title: "Success", Description: "Chatbot created successfully!"})

	select {
	case raw := <-alice.Send:
		var got envelope
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "notification", got.Type)
		assert.Equal(t, "Chatbot created successfully!", got.Data.Description)
	case <-time.After(time.Second):
		t.Fatal("alice got nothing")
	}
	assert.Empty(t, bob.Send)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := startHub(t)
	client := &Client{Hub: hub, UserID: "alice", Send: make(chan []byte, 1)}
	hub.register <- client
	require.Eventually(t, func() bool { return hub.Connected("alice") == 1 }, time.Second, time.Millisecond)

	hub.Send("alice", coordinator.Notification{Title: "first"})
	hub.Send("alice", coordinator.Notification{Title: "second"})

	assert.Len(t, client.Send, 1)
	assert.Equal(t, 1, hub.Connected("alice"))
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := startHub(t)
	client := &Client{Hub: hub, UserID: "alice", Send: make(chan []byte, 1)}
	hub.register <- client
	hub.unregister <- client

	require.Eventually(t, func() bool { return hub.Connected("alice") == 0 }, time.Second, time.Millisecond)
	_, ok := <-client.Send
	assert.False(t, ok)
}
