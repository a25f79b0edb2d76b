// internal/notifications/hub_test.go

package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubTracksConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	client := NewClient(hub, nil, 1)
	hub.register <- client

	assert.Eventually(t, func() bool { return hub.IsUserOnline(1) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.ActiveConnections())
	assert.False(t, hub.IsUserOnline(2))

	// Pushes reach connected users only
	assert.True(t, hub.SendToUser(1, WSEvent{Type: "notification"}))
	assert.False(t, hub.SendToUser(2, WSEvent{Type: "notification"}))

	hub.unregister <- client
	assert.Eventually(t, func() bool { return !hub.IsUserOnline(1) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.ActiveConnections())
}

func TestHubReplacesOlderConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	first := NewClient(hub, nil, 7)
	hub.register <- first
	second := NewClient(hub, nil, 7)
	hub.register <- second

	// The older client's send channel is closed on replacement
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-first.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, hub.ActiveConnections())
	assert.True(t, hub.IsUserOnline(7))

	require.True(t, hub.SendToUser(7, WSEvent{Type: "notification", Timestamp: time.Now()}))
	select {
	case frame := <-second.send:
		var event WSEvent
		require.NoError(t, json.Unmarshal(frame, &event))
		assert.Equal(t, "notification", event.Type)
	case <-time.After(time.Second):
		t.Fatal("expected the replacement connection to receive the event")
	}
}
