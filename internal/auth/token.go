package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewRawToken returns a 64-character hex string from 32 bytes of
// cryptographically secure randomness. Used for reset tokens and
// session identifiers.
func NewRawToken() (string, error) {
	return randomHex(32)
}

// HashToken returns the SHA-256 hex digest of a raw token. Only the
// digest is ever persisted.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
