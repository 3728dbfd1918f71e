package main

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"radetzky/types"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readNowPlaying(t *testing.T, conn *websocket.Conn) types.NowPlayingMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg types.NowPlayingMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// TestWebSocketSnapshotOnConnect tests that a new client first receives the current metadata
func TestWebSocketSnapshotOnConnect(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	require.NoError(t, helper.Deps.Monitor.Refresh(context.Background()))

	conn := helper.ConnectWebSocket(t, "/api/ws/now-playing")
	defer conn.Close()

	msg := readNowPlaying(t, conn)
	assert.Equal(t, "now-playing", msg.Type)
	assert.Equal(t, "Song A", msg.Metadata.CurrentTrack)
	assert.False(t, msg.Timestamp.IsZero())
}

// TestWebSocketBroadcastOnChange tests that a track change reaches connected clients
func TestWebSocketBroadcastOnChange(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	require.NoError(t, helper.Deps.Monitor.Refresh(context.Background()))

	conn := helper.ConnectWebSocket(t, "/api/ws/now-playing")
	defer conn.Close()

	assert.Equal(t, "Song A", readNowPlaying(t, conn).Metadata.CurrentTrack)
	require.Eventually(t, func() bool {
		return helper.Deps.Hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Unchanged metadata is not pushed again
	require.NoError(t, helper.Deps.Monitor.Refresh(context.Background()))

	helper.SetStatus(http.StatusOK, strings.Replace(statusArray, "Song A", "Song B", 1), 0)
	require.NoError(t, helper.Deps.Monitor.Refresh(context.Background()))

	msg := readNowPlaying(t, conn)
	assert.Equal(t, "Song B", msg.Metadata.CurrentTrack)
}

// TestWebSocketDisconnect tests that closed connections leave the hub
func TestWebSocketDisconnect(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	conn := helper.ConnectWebSocket(t, "/api/ws/now-playing")
	require.Eventually(t, func() bool {
		return helper.Deps.Hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return helper.Deps.Hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// TestNowPlayingEndpoint tests the polling counterpart of the websocket
func TestNowPlayingEndpoint(t *testing.T) {
	helper := NewTestHelper(t)
	defer helper.Cleanup(t)

	resp := helper.GetJSON(t, "/api/now-playing", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// A failed refresh keeps serving nothing rather than a broken value
	helper.SetStatus(http.StatusInternalServerError, "boom", 0)
	assert.Error(t, helper.Deps.Monitor.Refresh(context.Background()))
	resp = helper.GetJSON(t, "/api/now-playing", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	helper.SetStatus(http.StatusOK, statusArray, 0)
	require.NoError(t, helper.Deps.Monitor.Refresh(context.Background()))

	var meta types.StreamMetadata
	resp = helper.GetJSON(t, "/api/now-playing", &meta)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Song A", meta.CurrentTrack)

	// Stale value survives an upstream outage
	helper.SetStatus(http.StatusInternalServerError, "boom", 0)
	assert.Error(t, helper.Deps.Monitor.Refresh(context.Background()))
	resp = helper.GetJSON(t, "/api/now-playing", &meta)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Song A", meta.CurrentTrack)
}
