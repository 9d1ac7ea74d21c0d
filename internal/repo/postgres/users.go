package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/observability"
)

const usernameUniq = "users_username_uniq"

type UsersRepo struct {
	db   DB
	prom *observability.Prom
}

func NewUsersRepo(db DB, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, prom: prom}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.prom.ObserveDB("users.create", func() error {
		_, e := r.db.Exec(ctx,
			`INSERT INTO users (id, username, password_hash, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			u.ID, u.Username, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
		)
		return e
	})

	if err != nil {
		if IsUniqueViolation(err, usernameUniq) {
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_username",
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users
		 WHERE username = $1`,
		username,
	)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id",
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users
		 WHERE id = $1`,
		id,
	)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		e := r.db.QueryRow(ctx, query, arg).Scan(
			&u.ID,
			&u.Username,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		// a miss is not a DB error
		if errors.Is(e, pgx.ErrNoRows) {
			return nil
		}
		return e
	})

	if err != nil {
		return user.User{}, err
	}
	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}
