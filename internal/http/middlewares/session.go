package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/todohub/internal/actorctx"
	"github.com/geocoder89/todohub/internal/domain/session"
)

// SessionResolver turns a raw cookie value into a live session.
type SessionResolver interface {
	Resolve(ctx context.Context, raw string) (session.Session, error)
}

type SessionMiddleware struct {
	resolver   SessionResolver
	cookieName string
	log        *slog.Logger
}

func NewSessionMiddleware(resolver SessionResolver, cookieName string, log *slog.Logger) *SessionMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &SessionMiddleware{resolver: resolver, cookieName: cookieName, log: log}
}

// Load resolves the session cookie, if any, and attaches the identity to the
// request context via actorctx. It never rejects a request.
func (m *SessionMiddleware) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(m.cookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		s, err := m.resolver.Resolve(cctx, raw)
		cancel()

		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				m.log.ErrorContext(c.Request.Context(), "session resolve failed", "err", err)
			}
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), actorctx.Identity{
			UserID:   s.UserID,
			Username: s.Username,
		}))

		c.Next()
	}
}

func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserIDFromContext(c); !ok {
			reqID, _ := c.Get(CtxRequestID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":      "unauthenticated",
					"message":   "Authentication required",
					"requestId": reqID,
				},
			})
			return
		}

		c.Next()
	}
}

// UserIDFromContext and IdentityFromContext read the identity Load put on
// the request context.

func UserIDFromContext(c *gin.Context) (string, bool) {
	return actorctx.UserIDFrom(c.Request.Context())
}

func IdentityFromContext(c *gin.Context) (actorctx.Identity, bool) {
	return actorctx.IdentityFrom(c.Request.Context())
}
