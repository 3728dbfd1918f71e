package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// IcecastStatus is the document served by an Icecast status-json.xsl endpoint
type IcecastStatus struct {
	IceStats IceStats `json:"icestats"`
}

// IceStats holds the server-wide section of the status document
type IceStats struct {
	Admin    string     `json:"admin,omitempty"`
	Host     string     `json:"host,omitempty"`
	ServerID string     `json:"server_id,omitempty"`
	Source   SourceList `json:"source"`
}

// IcecastSource describes one mounted source on the Icecast server
type IcecastSource struct {
	ServerName        string  `json:"server_name"`
	ServerDescription string  `json:"server_description"`
	ServerType        string  `json:"server_type"`
	ListenURL         string  `json:"listenurl"`
	Title             string  `json:"title"`
	Genre             string  `json:"genre"`
	Bitrate           FlexInt `json:"bitrate"`
	Listeners         FlexInt `json:"listeners"`
}

// SourceList accepts either a single source object or an array of them.
// Icecast emits an object when exactly one mount is live.
type SourceList []IcecastSource

// UnmarshalJSON decodes a source object, an array of sources or null
func (l *SourceList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if data[0] == '[' {
		var sources []IcecastSource
		if err := json.Unmarshal(data, &sources); err != nil {
			return err
		}
		*l = sources
		return nil
	}

	var source IcecastSource
	if err := json.Unmarshal(data, &source); err != nil {
		return err
	}
	*l = SourceList{source}
	return nil
}

// FlexInt is an integer that may be encoded as a JSON number or a numeric string.
// Set is false when the field was absent, null or not numeric.
type FlexInt struct {
	Value int
	Set   bool
}

// UnmarshalJSON decodes numbers, numeric strings and null
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = FlexInt{}
		return nil
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Non-numeric values are treated as missing rather than failing the whole document
		*f = FlexInt{}
		return nil
	}

	*f = FlexInt{Value: int(n), Set: true}
	return nil
}

// MarshalJSON encodes the value as a number, or null when unset
func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(f.Value)), nil
}
