package db

import (
	"context"
	"errors"

	"github.com/geocoder89/todohub/internal/domain/user"
)

type SeedStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureSeedUser creates a dev account when both username and password are
// set. An existing user with that name is left untouched.
func EnsureSeedUser(ctx context.Context, store SeedStore, hasher user.Hasher, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := store.GetByUsername(ctx, username)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	u := user.New(username)

	if err := u.SetPassword(hasher, password); err != nil {
		return err
	}

	_, err = store.Create(ctx, u)

	// lost a race with another instance
	if errors.Is(err, user.ErrUsernameTaken) {
		return nil
	}

	return err
}
