package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Hasher is the subset of the password hasher a User needs to set its own hash.
type Hasher interface {
	Hash(plain string) (string, error)
}

// New builds a user with a fresh id. The password is set separately with SetPassword.
func New(username string) User {
	now := time.Now().UTC()

	return User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetPassword hashes plain eagerly and stores the result. The plaintext is not kept.
func (u *User) SetPassword(h Hasher, plain string) error {
	hash, err := h.Hash(plain)
	if err != nil {
		return err
	}

	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()

	return nil
}
