package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"radetzky/cmd"
	"radetzky/config"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// statusArray is an Icecast document listing several sources
const statusArray = `{"icestats":{"admin":"icemaster@localhost","host":"katolikusradio.hu","server_id":"Icecast 2.4.4","source":[
	{"server_name":"Other","listenurl":"http://katolikusradio.hu:9000/other","title":"X","bitrate":128},
	{"server_name":"RadetzkyFM","listenurl":"http://katolikusradio.hu:9000/radetzkyfm","title":"Song A","bitrate":96,"listeners":3,"genre":"Classical","server_type":"audio/aac","server_description":"Catholic Radio Stream"}
]}}`

// TestHelper provides utilities for testing the API end to end against a fake Icecast server
type TestHelper struct {
	Server   *httptest.Server
	Upstream *httptest.Server
	Stream   *httptest.Server
	Config   *config.Config
	Deps     cmd.Deps
	Router   *gin.Engine

	cancel context.CancelFunc

	mu           sync.Mutex
	statusBody   string
	statusCode   int
	statusDelay  time.Duration
	streamStatus int
}

// NewTestHelper creates a new test helper. The upstream serves statusArray until changed.
func NewTestHelper(t *testing.T, opts ...func(*config.Config)) *TestHelper {
	gin.SetMode(gin.TestMode)

	h := &TestHelper{
		statusBody:   statusArray,
		statusCode:   http.StatusOK,
		streamStatus: http.StatusOK,
	}

	h.Upstream = httptest.NewServer(http.HandlerFunc(h.serveStatus))
	h.Stream = httptest.NewServer(http.HandlerFunc(h.serveStream))

	cfg := config.Default()
	cfg.Station.StatusURL = h.Upstream.URL + "/status-json.xsl"
	cfg.Station.StreamURL = h.Stream.URL + "/radetzkyfm"
	cfg.Station.FallbackStreamURL = ""
	cfg.Station.StatusTimeout = 500 * time.Millisecond
	cfg.Metadata.RefreshInterval = time.Hour
	for _, opt := range opts {
		opt(cfg)
	}
	h.Config = cfg

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	h.Deps = cmd.NewDeps(cfg)
	go h.Deps.Hub.Run(ctx)

	h.Router = cmd.NewRouter(cfg, h.Deps)
	h.Server = httptest.NewServer(h.Router)
	return h
}

// Cleanup cleans up test resources
func (h *TestHelper) Cleanup(t *testing.T) {
	h.cancel()
	h.Server.Close()
	h.Upstream.Close()
	h.Stream.Close()
}

// SetStatus changes what the fake Icecast server answers
func (h *TestHelper) SetStatus(code int, body string, delay time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statusCode, h.statusBody, h.statusDelay = code, body, delay
}

// SetStreamStatus changes the status code of the fake stream endpoint
func (h *TestHelper) SetStreamStatus(code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streamStatus = code
}

func (h *TestHelper) serveStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	code, body, delay := h.statusCode, h.statusBody, h.statusDelay
	h.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func (h *TestHelper) serveStream(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	code := h.streamStatus
	h.mu.Unlock()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("icy-name", "RadetzkyFM")
	w.WriteHeader(code)
	if code == http.StatusOK {
		_, _ = io.WriteString(w, "ID3\x03\x00\x00\x00\x00\x00\x00audio-bytes")
	}
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, header http.Header) *http.Response {
	req, err := http.NewRequest(method, h.Server.URL+path, nil)
	require.NoError(t, err)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// GetJSON makes a GET request and unmarshals JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	resp := h.MakeRequest(t, http.MethodGet, path, nil)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if target != nil {
		require.NoError(t, json.Unmarshal(body, target), "body: %s", body)
	}
	return resp
}

// ConnectWebSocket connects to a WebSocket endpoint
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(h.Server.URL, "http") + path

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}
