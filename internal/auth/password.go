// Package auth implements the credential vault: password hashing and
// the single-use reset token lifecycle.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt credential at the given cost. The salt
// is generated per call and embedded in the output, so verification is
// self-contained.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword re-derives under the embedded parameters and compares
// in constant time.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
