package memory

import (
	"context"
	"time"

	"github.com/geocoder89/todohub/internal/cache"
	"github.com/geocoder89/todohub/internal/domain/session"
)

// SessionsRepo keeps sessions in a process-local expiring map. Dev and tests only.
type SessionsRepo struct {
	c *cache.Cache
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{c: cache.New()}
}

func (r *SessionsRepo) Save(_ context.Context, s session.Session) error {
	s.Token = ""
	r.c.SetUntil(s.ID, s, s.ExpiresAt)
	return nil
}

func (r *SessionsRepo) Get(_ context.Context, id string) (session.Session, error) {
	v, ok := r.c.Get(id)
	if !ok {
		return session.Session{}, session.ErrNotFound
	}

	return v.(session.Session), nil
}

func (r *SessionsRepo) Delete(_ context.Context, id string) error {
	r.c.Delete(id)
	return nil
}

// DeleteExpired mirrors the Postgres store so the janitor can drive either.
func (r *SessionsRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return int64(r.c.Sweep(now)), nil
}
