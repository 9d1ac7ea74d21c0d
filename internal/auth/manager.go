package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/todohub/internal/domain/session"
)

const DefaultSessionTTL = 24 * time.Hour

// Store persists sessions under their hashed id.
type Store interface {
	Save(ctx context.Context, s session.Session) error
	Get(ctx context.Context, id string) (session.Session, error)
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &Manager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create issues a new session for the user. The returned Session carries the
// raw Token; only its hash is handed to the store.
func (m *Manager) Create(ctx context.Context, userID, username string) (session.Session, error) {
	raw, err := newToken()
	if err != nil {
		return session.Session{}, fmt.Errorf("generate session token: %w", err)
	}

	now := m.now()

	s := session.Session{
		ID:        m.HashToken(raw),
		Token:     raw,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	stored := s
	stored.Token = ""

	if err := m.store.Save(ctx, stored); err != nil {
		return session.Session{}, fmt.Errorf("save session: %w", err)
	}

	return s, nil
}

// Resolve maps a raw token back to its session. Unknown, expired and
// malformed tokens all yield session.ErrNotFound.
func (m *Manager) Resolve(ctx context.Context, raw string) (session.Session, error) {
	if !wellFormed(raw) {
		return session.Session{}, session.ErrNotFound
	}

	id := m.HashToken(raw)

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return session.Session{}, err
	}

	if s.Expired(m.now()) {
		// the janitor or the store TTL would get it eventually
		_ = m.store.Delete(ctx, id)
		return session.Session{}, session.ErrNotFound
	}

	return s, nil
}

// Destroy is idempotent. Malformed tokens are ignored.
func (m *Manager) Destroy(ctx context.Context, raw string) error {
	if !wellFormed(raw) {
		return nil
	}

	err := m.store.Delete(ctx, m.HashToken(raw))
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// Deterministic HMAC hash (server-side pepper = session secret bytes).
// Store this, never the raw token.
func (m *Manager) HashToken(raw string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}
