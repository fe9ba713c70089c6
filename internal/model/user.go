package model

import "time"

// Privacy values accepted for a user profile. A private profile gates
// messaging behind a mutual follow and hides connection lists.
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
)

// User mirrors a row of the `users` table. Handlers define their own
// response types; PasswordHash must never leave the server.
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	Bio          string
	Location     string
	Phone        string
	Website      string
	AvatarRef    string
	Privacy      string
	Gender       string
	AgeGroup     string
	DateOfBirth  *time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPrivate reports whether messaging and connection lists are gated.
func (u *User) IsPrivate() bool { return u.Privacy == PrivacyPrivate }

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
