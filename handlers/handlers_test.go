package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"radetzky/services"
	"radetzky/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStation struct {
	meta types.StreamMetadata
	err  error
}

func (s stubStation) StreamInfo(context.Context) (types.StreamMetadata, error) {
	return s.meta, s.err
}

func (s stubStation) Defaults() types.StreamMetadata {
	return types.StreamMetadata{
		StreamURL:    "http://h/radetzkyfm",
		StationName:  "RadetzkyFM",
		Description:  "Catholic Radio Stream",
		CurrentTrack: services.UnknownTrack,
	}
}

type stubProxy struct {
	stream *services.UpstreamStream
	err    error
}

func (p stubProxy) Open(context.Context, string) (*services.UpstreamStream, error) {
	return p.stream, p.err
}

func serve(t *testing.T, method, target string, register func(r *gin.Engine)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	w := serve(t, http.MethodGet, "/api/health", func(r *gin.Engine) {
		r.GET("/api/health", NewHealthHandler("RadetzkyFM").HealthCheck)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "RadetzkyFM Radio Player API is running", body["message"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestStreamInfo(t *testing.T) {
	tests := []struct {
		name          string
		station       stubStation
		expectedCode  int
		expectedError string
	}{
		{
			name:         "ok",
			station:      stubStation{meta: types.StreamMetadata{CurrentTrack: "Song A"}},
			expectedCode: http.StatusOK,
		},
		{
			name:          "upstream failure",
			station:       stubStation{err: errors.New("fetch status: timeout")},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Failed to fetch stream metadata",
		},
		{
			name:          "stream unavailable",
			station:       stubStation{err: fmt.Errorf("probe: %w", services.ErrStreamUnavailable)},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Can't connect to stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, http.MethodGet, "/api/stream-info", func(r *gin.Engine) {
				r.GET("/api/stream-info", NewStreamInfoHandler(tt.station).StreamInfo)
			})

			assert.Equal(t, tt.expectedCode, w.Code)
			body := decode(t, w)
			if tt.expectedError == "" {
				assert.Equal(t, "Song A", body["currentTrack"])
				return
			}
			assert.Equal(t, tt.expectedError, body["error"])
		})
	}
}

func TestStreamInfoFailureCarriesDefaults(t *testing.T) {
	w := serve(t, http.MethodGet, "/api/stream-info", func(r *gin.Engine) {
		r.GET("/api/stream-info", NewStreamInfoHandler(stubStation{err: errors.New("boom")}).StreamInfo)
	})

	body := decode(t, w)
	assert.Equal(t, "http://h/radetzkyfm", body["streamUrl"])
	assert.Equal(t, "RadetzkyFM", body["stationName"])
	assert.Equal(t, "Catholic Radio Stream", body["description"])
	assert.Equal(t, "boom", body["details"])
}

func TestProxyStream(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		w := serve(t, http.MethodGet, "/api/proxy-stream", func(r *gin.Engine) {
			r.GET("/api/proxy-stream", NewProxyHandler(stubProxy{}).ProxyStream)
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "URL parameter is required", decode(t, w)["error"])
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("open failure", func(t *testing.T) {
		w := serve(t, http.MethodGet, "/api/proxy-stream?url=http://h/x", func(r *gin.Engine) {
			r.GET("/api/proxy-stream", NewProxyHandler(stubProxy{err: errors.New("refused")}).ProxyStream)
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to proxy stream", decode(t, w)["error"])
	})

	t.Run("relay", func(t *testing.T) {
		upstream := &services.UpstreamStream{
			StatusCode: http.StatusOK,
			Header: http.Header{
				"Content-Type":                {"audio/aac"},
				"Icy-Name":                    {"RadetzkyFM"},
				"Connection":                  {"close"},
				"Access-Control-Allow-Origin": {"http://upstream.example"},
			},
			Body: io.NopCloser(strings.NewReader("aac-bytes")),
		}
		w := serve(t, http.MethodGet, "/api/proxy-stream?url=http://h/x", func(r *gin.Engine) {
			r.GET("/api/proxy-stream", NewProxyHandler(stubProxy{stream: upstream}).ProxyStream)
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "aac-bytes", w.Body.String())
		assert.Equal(t, "audio/aac", w.Header().Get("Content-Type"))
		assert.Equal(t, "RadetzkyFM", w.Header().Get("Icy-Name"))
		assert.Empty(t, w.Header().Get("Connection"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
