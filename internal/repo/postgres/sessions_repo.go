package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/geocoder89/todohub/internal/domain/session"
	"github.com/geocoder89/todohub/internal/observability"
)

// SessionsRepo is the durable session store. Rows are keyed by the hashed
// token; expired rows are removed by the worker's janitor.
type SessionsRepo struct {
	db   DB
	prom *observability.Prom
}

func NewSessionsRepo(db DB, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{db: db, prom: prom}
}

func (r *SessionsRepo) Save(ctx context.Context, s session.Session) error {
	return r.prom.ObserveDB("sessions.save", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO sessions (id, user_id, username, created_at, expires_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			s.ID, s.UserID, s.Username, s.CreatedAt, s.ExpiresAt,
		)
		return err
	})
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (session.Session, error) {
	var s session.Session

	err := r.prom.ObserveDB("sessions.get", func() error {
		e := r.db.QueryRow(ctx,
			`SELECT id, user_id, username, created_at, expires_at
			 FROM sessions
			 WHERE id = $1`,
			id,
		).Scan(&s.ID, &s.UserID, &s.Username, &s.CreatedAt, &s.ExpiresAt)
		if errors.Is(e, pgx.ErrNoRows) {
			return nil
		}
		return e
	})

	if err != nil {
		return session.Session{}, err
	}
	if s.ID == "" {
		return session.Session{}, session.ErrNotFound
	}

	return s, nil
}

func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	return r.prom.ObserveDB("sessions.delete", func() error {
		_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
		return err
	})
}

func (r *SessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64

	err := r.prom.ObserveDB("sessions.delete_expired", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})

	return n, err
}
