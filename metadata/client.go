package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"radetzky/types"

	"github.com/rs/zerolog/log"
)

// DefaultInterval is how often the player refreshes now-playing information
const DefaultInterval = 30 * time.Second

// ErrNoTrack is returned for responses that carry no current track
var ErrNoTrack = errors.New("response has no current track")

// Client fetches stream metadata from the backend API
type Client struct {
	url    string
	client *http.Client

	mu       sync.RWMutex
	latest   types.StreamMetadata
	hasData  bool
	onUpdate func(types.StreamMetadata)
}

// NewClient creates a client for the API rooted at apiURL
func NewClient(apiURL string, timeout time.Duration) *Client {
	return &Client{
		url:    strings.TrimRight(apiURL, "/") + "/api/stream-info",
		client: &http.Client{Timeout: timeout},
	}
}

// OnUpdate installs a callback invoked after every successful refresh
func (c *Client) OnUpdate(fn func(types.StreamMetadata)) {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
}

// Fetch performs one request. A response without a current track is rejected
// and leaves the cached value untouched.
func (c *Client) Fetch(ctx context.Context) (types.StreamMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return types.StreamMetadata{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.client.Do(req)
	if err != nil {
		return types.StreamMetadata{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return types.StreamMetadata{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.StreamMetadata{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var meta types.StreamMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return types.StreamMetadata{}, fmt.Errorf("parse json: %w", err)
	}
	if meta.CurrentTrack == "" {
		return types.StreamMetadata{}, ErrNoTrack
	}

	c.mu.Lock()
	c.latest = meta
	c.hasData = true
	fn := c.onUpdate
	c.mu.Unlock()

	if fn != nil {
		fn(meta)
	}
	return meta, nil
}

// Run fetches immediately and then every interval until ctx is done.
// Failures are logged and the last good value is kept.
func (c *Client) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.Fetch(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("url", c.url).Msg("Error fetching stream metadata")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Latest returns the last successfully fetched metadata
func (c *Client) Latest() (types.StreamMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.hasData
}
