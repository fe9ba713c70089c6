package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewRawTokenUnique(t *testing.T) {
	a, err := NewRawToken()
	require.NoError(t, err)
	b, err := NewRawToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHashTokenDeterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Sunrise99", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "Sunrise99"))
	assert.False(t, VerifyPassword(hash, "sunrise99"))
	assert.False(t, VerifyPassword("", "Sunrise99"))
}
