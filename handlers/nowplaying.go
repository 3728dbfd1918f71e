package handlers

import (
	"net/http"

	"radetzky/services"
	"radetzky/websocket"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// NowPlayingHandler pushes now-playing updates over WebSocket
type NowPlayingHandler struct {
	monitor services.Monitor
	hub     websocket.Hub
}

// NewNowPlayingHandler creates a new now-playing handler
func NewNowPlayingHandler(monitor services.Monitor, hub websocket.Hub) *NowPlayingHandler {
	return &NowPlayingHandler{
		monitor: monitor,
		hub:     hub,
	}
}

// Latest returns the last metadata seen by the monitor
func (h *NowPlayingHandler) Latest(c *gin.Context) {
	meta, ok := h.monitor.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "now-playing metadata not available yet",
		})
		return
	}
	c.JSON(http.StatusOK, meta)
}

// HandleWebSocketConnection upgrades the request and subscribes the client to updates
func (h *NowPlayingHandler) HandleWebSocketConnection(c *gin.Context) {
	conn, err := websocket.GetUpgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)

	// Send the current snapshot first so the client never starts empty
	if meta, ok := h.monitor.Latest(); ok {
		client.Queue(websocket.NewNowPlayingMessage(meta))
	}

	h.hub.RegisterClient(client)

	// Start client pumps
	client.StartPumps()
}
