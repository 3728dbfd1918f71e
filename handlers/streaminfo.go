package handlers

import (
	"errors"
	"net/http"

	"radetzky/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StreamInfoHandler serves normalized now-playing metadata
type StreamInfoHandler struct {
	station services.StationService
}

// NewStreamInfoHandler creates a new stream info handler
func NewStreamInfoHandler(station services.StationService) *StreamInfoHandler {
	return &StreamInfoHandler{station: station}
}

// StreamInfo returns the station metadata, or the station defaults with a 500 when the upstream fails
func (h *StreamInfoHandler) StreamInfo(c *gin.Context) {
	meta, err := h.station.StreamInfo(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrStreamUnavailable) {
			log.Error().Err(err).Msg("Stream unavailable")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Can't connect to stream",
			})
			return
		}

		log.Error().Err(err).Msg("Error fetching stream metadata")
		defaults := h.station.Defaults()
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":       "Failed to fetch stream metadata",
			"details":     err.Error(),
			"streamUrl":   defaults.StreamURL,
			"stationName": defaults.StationName,
			"description": defaults.Description,
		})
		return
	}

	c.JSON(http.StatusOK, meta)
}
