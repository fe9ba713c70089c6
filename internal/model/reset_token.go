package model

import "time"

// ResetToken is a single-use password recovery secret. Only the SHA-256
// hash of the raw value is stored; the raw token travels to the user
// exactly once, out of band. UsedAt is set by a conditional update so a
// consumed token can never be redeemed twice.
type ResetToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
