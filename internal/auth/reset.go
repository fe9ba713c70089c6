package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yeojw/kampung/internal/model"
	"github.com/yeojw/kampung/internal/repository"
)

// ResetTokenTTL is the window within which a reset token may be
// redeemed.
const ResetTokenTTL = 30 * time.Minute

// ErrTokenInvalid covers every redemption failure - unknown, expired
// and already-consumed tokens all collapse into this one sentinel so
// the caller cannot tell which case occurred.
var ErrTokenInvalid = errors.New("invalid or expired token")

// userStore is the slice of the user repository the reset flow needs.
type userStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
}

// tokenStore is the slice of the reset token repository the flow needs.
type tokenStore interface {
	Create(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error
	Consume(ctx context.Context, tokenHash string) (uint64, error)
	InvalidateAllForUser(ctx context.Context, userID uint64) error
}

// MailPublisher hands the raw token to the out-of-band delivery
// channel. Failures are best-effort: the token row already exists and
// the user can retry the request.
type MailPublisher interface {
	PublishPasswordReset(ctx context.Context, email, displayName, rawToken string, expiresAt time.Time) error
}

// ResetService drives the password reset lifecycle.
type ResetService struct {
	Users      userStore
	Tokens     tokenStore
	Mail       MailPublisher
	BcryptCost int
}

func NewResetService(users userStore, tokens tokenStore, mail MailPublisher, bcryptCost int) *ResetService {
	return &ResetService{Users: users, Tokens: tokens, Mail: mail, BcryptCost: bcryptCost}
}

// Request issues a fresh token for the account behind email, superseding
// any outstanding one. When the email is unknown it does nothing but
// reports success all the same, so callers cannot probe which addresses
// exist.
func (s *ResetService) Request(ctx context.Context, email string) error {
	user, err := s.Users.GetByIdentifier(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn comparable work for unknown addresses.
			if _, genErr := NewRawToken(); genErr != nil {
				return genErr
			}
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	raw, err := NewRawToken()
	if err != nil {
		return err
	}
	expiresAt := time.Now().UTC().Add(ResetTokenTTL)
	if err := s.Tokens.Create(ctx, user.ID, HashToken(raw), expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if s.Mail != nil {
		if err := s.Mail.PublishPasswordReset(ctx, user.Email, user.Name(), raw, expiresAt); err != nil {
			log.Printf("reset: mail dispatch failed for user %d: %v", user.ID, err)
		}
	}
	return nil
}

// Redeem consumes the presented token and installs the new credential.
// Consumption is a compare-and-set at the storage layer; under
// concurrent attempts with the same token exactly one caller gets past
// the Consume call.
func (s *ResetService) Redeem(ctx context.Context, rawToken, newPassword string) error {
	userID, err := s.Tokens.Consume(ctx, HashToken(rawToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	hash, err := HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	// Any stragglers issued before this redemption are dead now.
	if err := s.Tokens.InvalidateAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("invalidate tokens: %w", err)
	}
	return nil
}
