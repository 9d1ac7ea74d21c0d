package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/todohub/internal/domain/user"
)

type UsersRepo struct {
	mu     sync.RWMutex
	byID   map[string]user.User
	byName map[string]string // username -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byID:   make(map[string]user.User),
		byName: make(map[string]string),
	}
}

// Create enforces username uniqueness under the write lock, the same way a
// unique index would.
func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[u.Username]; taken {
		return user.User{}, user.ErrUsernameTaken
	}

	r.byID[u.ID] = u
	r.byName[u.Username] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.byID[id], nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}
