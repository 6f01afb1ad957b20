package httpkit

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "X-Requested-With,Content-Type"
)

// preflightBody is what raw endpoints answer to OPTIONS.
var preflightBody = []byte(`{"status": 1}`)

// CORSResponse adds cross-origin headers for raw endpoints that are loaded
// from arbitrary customer sites. A request Origin is echoed back as
// scheme://host with credentials allowed; without one the response is
// opened to any origin.
func CORSResponse(c *gin.Context) {
	h := c.Writer.Header()

	if origin, ok := normalizeOrigin(c.GetHeader("Origin")); ok {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
	} else {
		h.Set("Access-Control-Allow-Origin", "*")
	}

	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
}

// IsPreflight reports whether the request is a CORS preflight.
func IsPreflight(c *gin.Context) bool {
	return c.Request.Method == http.MethodOptions
}

// Preflight answers an OPTIONS request with CORS headers and {"status": 1}.
func Preflight(c *gin.Context) {
	CORSResponse(c)
	c.Data(http.StatusOK, "application/json", preflightBody)
}

func normalizeOrigin(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return parsed.Scheme + "://" + parsed.Host, true
}
