package handlers

import (
	"io"
	"net/http"
	"strings"

	"radetzky/middleware"
	"radetzky/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// hopHeaders are connection-scoped and never relayed
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// ProxyHandler relays upstream audio streams with permissive CORS headers
type ProxyHandler struct {
	proxy services.StreamProxy
}

// NewProxyHandler creates a new proxy handler
func NewProxyHandler(proxy services.StreamProxy) *ProxyHandler {
	return &ProxyHandler{proxy: proxy}
}

// ProxyStream streams the audio at ?url= back to the caller byte for byte
func (h *ProxyHandler) ProxyStream(c *gin.Context) {
	middleware.SetCORSHeaders(c)

	target := strings.TrimSpace(c.Query("url"))
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "URL parameter is required",
		})
		return
	}

	log.Info().Str("url", target).Msg("Proxying stream")

	upstream, err := h.proxy.Open(c.Request.Context(), target)
	if err != nil {
		log.Error().Err(err).Str("url", target).Msg("Error proxying stream")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to proxy stream",
			"details": err.Error(),
		})
		return
	}
	defer upstream.Body.Close()

	// Copy upstream headers, then restore ours on top
	for name, values := range upstream.Header {
		if hopHeaders[http.CanonicalHeaderKey(name)] {
			continue
		}
		c.Writer.Header()[name] = append([]string(nil), values...)
	}
	middleware.SetCORSHeaders(c)

	c.Status(upstream.StatusCode)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	written, err := io.Copy(flushWriter{c.Writer}, upstream.Body)
	if err != nil && c.Request.Context().Err() == nil {
		log.Warn().Err(err).Int64("bytes", written).Str("url", target).Msg("Stream relay ended")
		return
	}
	log.Debug().Int64("bytes", written).Str("url", target).Msg("Stream relay closed")
}

// flushWriter pushes every chunk to the client as soon as it is written
type flushWriter struct {
	w gin.ResponseWriter
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	f.w.Flush()
	return n, err
}
