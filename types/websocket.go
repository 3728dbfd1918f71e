package types

import "time"

// NowPlayingMessage represents a WebSocket now-playing update message
type NowPlayingMessage struct {
	Type      string         `json:"type"` // "now-playing"
	Metadata  StreamMetadata `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"` // when the update was observed
}
