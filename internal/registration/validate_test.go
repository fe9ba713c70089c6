package registration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		username string
		ok       bool
	}{
		{"amy_tan", true},
		{"Abc123", true},
		{"ab", false},
		{"this_name_is_way_too_long_x", false},
		{"has space", false},
		{"dash-ed", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidateUsername(tc.username), tc.username)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("amy@example.com"))
	assert.True(t, ValidateEmail("a.b+c@sub.example.sg"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@tld"))
	assert.False(t, ValidateEmail("two@@example.com"))
}

func TestPasswordPolicyErrors(t *testing.T) {
	assert.Empty(t, PasswordPolicyErrors("Sunrise99"))

	errs := PasswordPolicyErrors("short")
	assert.Len(t, errs, 3) // length, uppercase, digit

	assert.Len(t, PasswordPolicyErrors("alllowercase1"), 1)
	assert.Len(t, PasswordPolicyErrors("NODIGITSHERE"), 2)
}

func TestAgeAt(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 21, AgeAt(time.Date(2005, 3, 14, 0, 0, 0, 0, time.UTC), now))
	// Birthday later this year: still a year younger.
	assert.Equal(t, 20, AgeAt(time.Date(2005, 9, 1, 0, 0, 0, 0, time.UTC), now))
	// Birthday today counts.
	assert.Equal(t, 13, AgeAt(time.Date(2013, 6, 1, 0, 0, 0, 0, time.UTC), now))
}
