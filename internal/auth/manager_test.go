package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/todohub/internal/domain/session"
)

type fakeStore struct {
	m         map[string]session.Session
	saveErr   error
	deleteErr error
	deleted   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{m: map[string]session.Session{}}
}

func (f *fakeStore) Save(_ context.Context, s session.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.m[s.ID] = s
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (session.Session, error) {
	s, ok := f.m[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.m[id]; !ok {
		return session.ErrNotFound
	}
	delete(f.m, id)
	return nil
}

func newTestManager(store Store) (*Manager, *time.Time) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(store, "test-secret", 0)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManager_CreateAndResolve(t *testing.T) {
	store := newFakeStore()
	m, _ := newTestManager(store)

	s, err := m.Create(context.Background(), "u-1", "alice")
	require.NoError(t, err)

	assert.NotEmpty(t, s.Token)
	assert.Equal(t, m.HashToken(s.Token), s.ID)
	assert.Equal(t, DefaultSessionTTL, s.ExpiresAt.Sub(s.CreatedAt))

	stored, ok := store.m[s.ID]
	require.True(t, ok)
	assert.Empty(t, stored.Token, "raw token must not reach the store")
	assert.NotContains(t, store.m, s.Token)

	got, err := m.Resolve(context.Background(), s.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "alice", got.Username)
}

func TestManager_TokensAreUnique(t *testing.T) {
	m, _ := newTestManager(newFakeStore())

	a, err := m.Create(context.Background(), "u-1", "alice")
	require.NoError(t, err)
	b, err := m.Create(context.Background(), "u-1", "alice")
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestManager_ResolveExpired(t *testing.T) {
	store := newFakeStore()
	m, now := newTestManager(store)

	s, err := m.Create(context.Background(), "u-1", "alice")
	require.NoError(t, err)

	*now = now.Add(DefaultSessionTTL)

	_, err = m.Resolve(context.Background(), s.Token)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.NotContains(t, store.m, s.ID, "expired session should be removed on sight")
}

func TestManager_ResolveRejectsUnknownAndMalformed(t *testing.T) {
	m, _ := newTestManager(newFakeStore())

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not-a-token"},
		{name: "well formed but unknown", raw: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Resolve(context.Background(), tt.raw)
			assert.ErrorIs(t, err, session.ErrNotFound)
		})
	}
}

func TestManager_DestroyIsIdempotent(t *testing.T) {
	store := newFakeStore()
	m, _ := newTestManager(store)

	s, err := m.Create(context.Background(), "u-1", "alice")
	require.NoError(t, err)

	require.NoError(t, m.Destroy(context.Background(), s.Token))
	require.NoError(t, m.Destroy(context.Background(), s.Token))
	require.NoError(t, m.Destroy(context.Background(), "junk"))

	_, err = m.Resolve(context.Background(), s.Token)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManager_StoreFailures(t *testing.T) {
	store := newFakeStore()
	m, _ := newTestManager(store)

	store.saveErr = errors.New("redis down")
	_, err := m.Create(context.Background(), "u-1", "alice")
	assert.ErrorIs(t, err, store.saveErr)

	store.saveErr = nil
	s, err := m.Create(context.Background(), "u-1", "alice")
	require.NoError(t, err)

	store.deleteErr = errors.New("redis down")
	assert.ErrorIs(t, m.Destroy(context.Background(), s.Token), store.deleteErr)
}
