package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/todohub/internal/actorctx"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

type errorEnvelope struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		RequestID string         `json:"requestId"`
		Details   map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	return env
}

// asUser stands in for the session middleware.
func asUser(userID, username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), actorctx.Identity{
				UserID:   userID,
				Username: username,
			}))
		}
		c.Next()
	}
}

func doJSON(r http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req.WithContext(context.Background()))
	return w
}

func decodeInto(t *testing.T, b []byte, out any) {
	t.Helper()

	if err := json.Unmarshal(b, out); err != nil {
		t.Fatalf("failed to unmarshal response: %v body=%s", err, string(b))
	}
}
