package services

import (
	"context"
	"sync"
	"time"

	"radetzky/types"
	"radetzky/websocket"

	"github.com/rs/zerolog/log"
)

// Monitor interface defines the methods for tracking now-playing changes on the server side
type Monitor interface {
	Start(ctx context.Context)
	Refresh(ctx context.Context) error
	Latest() (types.StreamMetadata, bool)
}

// monitor polls the station service and pushes changes through the hub
type monitor struct {
	station  StationService
	hub      websocket.Hub
	interval time.Duration
	timeout  time.Duration

	mu      sync.RWMutex
	latest  types.StreamMetadata
	hasData bool
}

// NewMonitor creates a new now-playing monitor
func NewMonitor(station StationService, hub websocket.Hub, interval, timeout time.Duration) Monitor {
	return &monitor{
		station:  station,
		hub:      hub,
		interval: interval,
		timeout:  timeout,
	}
}

// Start polls immediately and then on every interval until ctx is done
func (m *monitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.refreshLogged(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.refreshLogged(ctx)
			}
		}
	}()
}

func (m *monitor) refreshLogged(ctx context.Context) {
	if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("Now-playing refresh failed, keeping last known metadata")
	}
}

// Refresh fetches once and broadcasts when the metadata changed.
// On failure the previous value is kept.
func (m *monitor) Refresh(ctx context.Context) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	meta, err := m.station.StreamInfo(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	changed := !m.hasData || !m.latest.Equal(meta)
	m.latest = meta
	m.hasData = true
	m.mu.Unlock()

	if changed {
		log.Info().Str("track", meta.CurrentTrack).Msg("Now playing changed")
		if m.hub != nil {
			m.hub.BroadcastNowPlaying(meta)
		}
	}
	return nil
}

// Latest returns the last successfully fetched metadata
func (m *monitor) Latest() (types.StreamMetadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.hasData
}
