package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"radetzky/config"
	"radetzky/types"

	"github.com/rs/zerolog/log"
)

// UnknownTrack is shown when the upstream reports no title
const UnknownTrack = "Unknown Track"

// maxStatusBytes caps the size of the Icecast status document
const maxStatusBytes = 1 << 20

var (
	// ErrNoMatchingSource is returned when no Icecast source belongs to the station
	ErrNoMatchingSource = errors.New("no matching icecast source")

	// ErrStreamUnavailable is returned when neither the primary nor the fallback stream answers
	ErrStreamUnavailable = errors.New("can't connect to stream")
)

// StationService interface defines the methods for resolving now-playing metadata
type StationService interface {
	StreamInfo(ctx context.Context) (types.StreamMetadata, error)
	Defaults() types.StreamMetadata
}

// stationService reads the upstream Icecast status endpoint
type stationService struct {
	cfg    config.StationConfig
	client *http.Client
	probe  *http.Client
}

// NewStationService creates a new station service
func NewStationService(cfg config.StationConfig) StationService {
	return &stationService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.StatusTimeout},
		probe:  &http.Client{Timeout: cfg.ProbeTimeout},
	}
}

// Defaults returns the metadata served when the upstream has no entry for the station
func (s *stationService) Defaults() types.StreamMetadata {
	return types.StreamMetadata{
		StreamURL:    s.cfg.StreamURL,
		StationName:  s.cfg.Name,
		Description:  s.cfg.Description,
		CurrentTrack: UnknownTrack,
		Bitrate:      types.IntPtr(s.cfg.DefaultBitrate),
		Genre:        s.cfg.DefaultGenre,
		Listeners:    types.IntPtr(0),
		ServerType:   s.cfg.DefaultServerType,
	}
}

// StreamInfo fetches the status document and maps the station's source into StreamMetadata
func (s *stationService) StreamInfo(ctx context.Context) (types.StreamMetadata, error) {
	status, err := s.fetchStatus(ctx)
	if err != nil {
		return types.StreamMetadata{}, err
	}

	streamURL := s.cfg.StreamURL
	if s.cfg.CheckAvailability {
		streamURL, err = s.resolveStreamURL(ctx)
		if err != nil {
			return types.StreamMetadata{}, err
		}
	}

	source, err := FindSource(status.IceStats.Source, s.cfg.Name, s.cfg.Match)
	if err != nil {
		log.Debug().Str("station", s.cfg.Name).Msg("No matching source in status document, using defaults")
		meta := s.Defaults()
		meta.StreamURL = streamURL
		return meta, nil
	}

	return NormalizeSource(source, streamURL, s.cfg), nil
}

// fetchStatus downloads and decodes the Icecast status document
func (s *stationService) fetchStatus(ctx context.Context) (*types.IcecastStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.StatusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch status: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBytes))
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}

	var status types.IcecastStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	return &status, nil
}

// resolveStreamURL returns the first reachable stream among primary and fallback
func (s *stationService) resolveStreamURL(ctx context.Context) (string, error) {
	for _, candidate := range []string{s.cfg.StreamURL, s.cfg.FallbackStreamURL} {
		if candidate == "" {
			continue
		}
		if s.streamAvailable(ctx, candidate) {
			return candidate, nil
		}
		log.Warn().Str("url", candidate).Msg("Stream not reachable")
	}
	return "", ErrStreamUnavailable
}

// streamAvailable opens the stream and reports whether it answered 200
func (s *stationService) streamAvailable(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := s.probe.Do(req)
	if err != nil {
		return false
	}
	// Only the status line matters; the body is an endless stream
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// FindSource returns the first source whose server name equals name or whose
// listen URL contains match. The first match wins.
func FindSource(sources types.SourceList, name, match string) (*types.IcecastSource, error) {
	for i := range sources {
		src := &sources[i]
		if src.ServerName == name {
			return src, nil
		}
		if match != "" && strings.Contains(src.ListenURL, match) {
			return src, nil
		}
	}
	return nil, ErrNoMatchingSource
}

// NormalizeSource maps an Icecast source into StreamMetadata, filling empty fields from cfg
func NormalizeSource(src *types.IcecastSource, streamURL string, cfg config.StationConfig) types.StreamMetadata {
	bitrate := cfg.DefaultBitrate
	if src.Bitrate.Set && src.Bitrate.Value != 0 {
		bitrate = src.Bitrate.Value
	}

	listeners := 0
	if src.Listeners.Set {
		listeners = src.Listeners.Value
	}

	return types.StreamMetadata{
		StreamURL:    streamURL,
		StationName:  orDefault(src.ServerName, cfg.Name),
		Description:  orDefault(src.ServerDescription, cfg.Description),
		CurrentTrack: orDefault(src.Title, UnknownTrack),
		Bitrate:      types.IntPtr(bitrate),
		Genre:        orDefault(src.Genre, cfg.DefaultGenre),
		Listeners:    types.IntPtr(listeners),
		ServerType:   orDefault(src.ServerType, cfg.DefaultServerType),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
