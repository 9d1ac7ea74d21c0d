package middlewares

import (
	"github.com/gin-gonic/gin"
)

const (
	// JSON-only API: nothing may be framed, scripted or sniffed.
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// one year; set only where the sid cookie is Secure
	hstsValue = "max-age=31536000; includeSubDomains"
)

// SecurityHeaders hardens every response. Responses can carry the session
// cookie or a user's tasks, so nothing is cacheable. hsts is on in prod.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	static := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Content-Security-Policy", apiCSP},
		{"Cross-Origin-Resource-Policy", "same-site"},
		{"Cache-Control", "no-store"},
	}
	if hsts {
		static = append(static, [2]string{"Strict-Transport-Security", hstsValue})
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range static {
			h.Set(kv[0], kv[1])
		}
		c.Next()
	}
}
