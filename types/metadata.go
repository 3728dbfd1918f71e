package types

// StreamMetadata is the normalized now-playing record served by /api/stream-info
type StreamMetadata struct {
	StreamURL    string `json:"streamUrl"`
	StationName  string `json:"stationName"`
	Description  string `json:"description"`
	CurrentTrack string `json:"currentTrack"`
	Bitrate      *int   `json:"bitrate,omitempty"`
	Genre        string `json:"genre,omitempty"`
	Listeners    *int   `json:"listeners,omitempty"`
	ServerType   string `json:"serverType,omitempty"`
}

// IntPtr returns a pointer to v, for the optional numeric fields
func IntPtr(v int) *int {
	return &v
}

// Equal reports whether two records carry the same values
func (m StreamMetadata) Equal(o StreamMetadata) bool {
	return m.StreamURL == o.StreamURL &&
		m.StationName == o.StationName &&
		m.Description == o.Description &&
		m.CurrentTrack == o.CurrentTrack &&
		m.Genre == o.Genre &&
		m.ServerType == o.ServerType &&
		intPtrEqual(m.Bitrate, o.Bitrate) &&
		intPtrEqual(m.Listeners, o.Listeners)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
