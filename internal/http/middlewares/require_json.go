package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON answers 415 when a write request carries a non-JSON body.
// Bodiless POSTs such as /auth/logout pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasBody(c.Request) || isJSON(c.GetHeader("Content-Type")) {
			c.Next()
			return
		}

		reqID, _ := c.Get(CtxRequestID)
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error": gin.H{
				"code":      "unsupported_media_type",
				"message":   "Content-Type must be application/json",
				"requestId": reqID,
			},
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}

func isJSON(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/json"
}
