package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	ok, err := h.Verify("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_SaltsDiffer(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two hashes of the same input must differ")

	for _, hash := range []string{a, b} {
		ok, err := h.Verify("same-password", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestHasher_MalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	ok, err := h.Verify("whatever", "not-a-bcrypt-hash")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestNewHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost())
	assert.Equal(t, bcrypt.MinCost, NewHasher(1).Cost())
	assert.Equal(t, bcrypt.MaxCost, NewHasher(99).Cost())
	assert.Equal(t, 12, NewHasher(12).Cost())
}

func TestHasher_LongPasswords(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	tests := []struct {
		name  string
		plain string
	}{
		{name: "73 ascii bytes", plain: strings.Repeat("p", 73)},
		{name: "256 ascii bytes", plain: strings.Repeat("x", 256)},
		{name: "40 two-byte runes", plain: strings.Repeat("é", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.plain)
			require.NoError(t, err)

			ok, err := h.Verify(tt.plain, hash)
			require.NoError(t, err)
			assert.True(t, ok)

			// differs only past byte 72
			ok, err = h.Verify(tt.plain+"!", hash)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}
