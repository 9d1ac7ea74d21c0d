package auth

import (
	"crypto/rand"
	"encoding/base64"
)

const tokenBytes = 32

func newToken() (string, error) {
	b := make([]byte, tokenBytes)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// wellFormed rejects anything that could not have come from newToken.
func wellFormed(raw string) bool {
	if len(raw) != base64.RawURLEncoding.EncodedLen(tokenBytes) {
		return false
	}

	b, err := base64.RawURLEncoding.DecodeString(raw)

	return err == nil && len(b) == tokenBytes
}
