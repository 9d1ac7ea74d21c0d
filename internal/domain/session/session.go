package session

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Session binds an opaque client token to a user.
// ID is the server-side key derived from the token; the raw Token is only
// populated right after creation so it can be handed to the client.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
