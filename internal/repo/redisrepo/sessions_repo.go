package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geocoder89/todohub/internal/domain/session"
)

const keyPrefix = "session:"

// SessionsRepo stores sessions as JSON values whose Redis TTL matches the
// session expiry, so Redis does the sweeping.
type SessionsRepo struct {
	rdb *redis.Client
	now func() time.Time
}

func NewSessionsRepo(rdb *redis.Client) *SessionsRepo {
	return &SessionsRepo{rdb: rdb, now: time.Now}
}

func key(id string) string {
	return keyPrefix + id
}

func (r *SessionsRepo) Save(ctx context.Context, s session.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return r.rdb.Set(ctx, key(s.ID), b, ttl).Err()
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (session.Session, error) {
	b, err := r.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}

	var s session.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return session.Session{}, fmt.Errorf("decode session: %w", err)
	}

	return s, nil
}

func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, key(id)).Err()
}
