package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders hardens every board response. Screens on the allowed
// origins may open the live socket, so their ws/wss forms are added to
// connect-src.
func SecurityHeaders(allowedOrigins []string) gin.HandlerFunc {
	csp := "default-src 'none'; frame-ancestors 'none'; connect-src " + connectSources(allowedOrigins)

	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", csp)
		// board data and guest phone numbers change every few seconds
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}

func connectSources(origins []string) string {
	sources := []string{"'self'"}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case strings.HasPrefix(o, "https://"):
			sources = append(sources, o, "wss://"+strings.TrimPrefix(o, "https://"))
		case strings.HasPrefix(o, "http://"):
			sources = append(sources, o, "ws://"+strings.TrimPrefix(o, "http://"))
		}
	}
	return strings.Join(sources, " ")
}
