package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	allowMethods = []string{"GET", "OPTIONS"}
	allowHeaders = []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Range"}
)

// CORS returns a configured CORS middleware. A "*" entry (the default) allows every origin.
func CORS(origins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowMethods = allowMethods
	config.AllowHeaders = allowHeaders
	config.ExposeHeaders = []string{"Content-Type", "Content-Length", "icy-name", "icy-br", "icy-genre", "icy-description"}
	config.OptionsResponseStatusCode = http.StatusOK

	if allowsAll(origins) {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = trimAll(origins)
	}

	return cors.New(config)
}

// Preflight answers OPTIONS requests that carry no Origin header, which the CORS
// middleware lets through, so every endpoint still replies 200 with CORS headers.
func Preflight(c *gin.Context) {
	SetCORSHeaders(c)
	c.Status(http.StatusOK)
}

// SetCORSHeaders writes the permissive headers used by the stream endpoints
func SetCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", strings.Join(allowMethods, ", "))
	c.Header("Access-Control-Allow-Headers", strings.Join(allowHeaders, ", "))
}

func allowsAll(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

func trimAll(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
