package repository

import (
	"context"
	"database/sql"
	"time"
)

// ResetTokenRepo stores password reset tokens as SHA-256 hashes, one
// honored token per user at a time.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Create invalidates every outstanding token for the user and inserts
// the new hash in one transaction, so at most one unconsumed token is
// ever redeemable.
func (r *ResetTokenRepo) Create(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used_at=UTC_TIMESTAMP() WHERE user_id=? AND used_at IS NULL`,
		userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)`,
		userID, tokenHash, expiresAt.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// Consume marks the token used with a single conditional update: the
// WHERE clause only matches an unconsumed, unexpired row, so concurrent
// redemption attempts resolve to exactly one winner. Returns the owning
// user ID, or sql.ErrNoRows when no redeemable token matched.
func (r *ResetTokenRepo) Consume(ctx context.Context, tokenHash string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used_at=UTC_TIMESTAMP()
		 WHERE token_hash=? AND used_at IS NULL AND expires_at > UTC_TIMESTAMP()`,
		tokenHash)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, sql.ErrNoRows
	}
	var userID uint64
	err = r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM password_reset_tokens WHERE token_hash=? LIMIT 1`,
		tokenHash).Scan(&userID)
	return userID, err
}

// InvalidateAllForUser marks every outstanding token used. Called after
// a successful redemption and on account deletion.
func (r *ResetTokenRepo) InvalidateAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used_at=UTC_TIMESTAMP() WHERE user_id=? AND used_at IS NULL`,
		userID)
	return err
}
