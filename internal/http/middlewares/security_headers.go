package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// JSON and probe endpoints never load anything.
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// Pages carry an inline stylesheet and post forms back to us.
	pageCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'; base-uri 'none'; object-src 'none'; frame-ancestors 'none'"
)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")

		if isAPIPath(c.Request.URL.Path) {
			c.Header("Content-Security-Policy", apiCSP)
		} else {
			c.Header("Content-Security-Policy", pageCSP)
			c.Header("Cache-Control", "no-store")
		}

		c.Next()
	}
}

func isAPIPath(p string) bool {
	switch {
	case strings.HasPrefix(p, "/api/"), p == "/healthz", p == "/readyz", p == "/metrics":
		return true
	default:
		return false
	}
}
