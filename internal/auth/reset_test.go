package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeojw/kampung/internal/model"
	"github.com/yeojw/kampung/internal/repository"
)

type fakeUserStore struct {
	users     map[string]model.User // keyed by email
	passwords map[uint64]string     // last installed hash
}

func (f *fakeUserStore) GetByIdentifier(_ context.Context, identifier string) (model.User, error) {
	u, ok := f.users[identifier]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id uint64, hash string) error {
	f.passwords[id] = hash
	return nil
}

// fakeTokenStore mirrors the storage contract: one redeemable token per
// user, consumption is first-wins.
type fakeTokenStore struct {
	tokens map[string]uint64 // hash -> user
}

func (f *fakeTokenStore) Create(_ context.Context, userID uint64, tokenHash string, _ time.Time) error {
	for h, uid := range f.tokens {
		if uid == userID {
			delete(f.tokens, h)
		}
	}
	f.tokens[tokenHash] = userID
	return nil
}

func (f *fakeTokenStore) Consume(_ context.Context, tokenHash string) (uint64, error) {
	uid, ok := f.tokens[tokenHash]
	if !ok {
		return 0, sql.ErrNoRows
	}
	delete(f.tokens, tokenHash)
	return uid, nil
}

func (f *fakeTokenStore) InvalidateAllForUser(_ context.Context, userID uint64) error {
	for h, uid := range f.tokens {
		if uid == userID {
			delete(f.tokens, h)
		}
	}
	return nil
}

type capturedMail struct {
	email string
	token string
}

type fakeMail struct{ sent []capturedMail }

func (f *fakeMail) PublishPasswordReset(_ context.Context, email, _, rawToken string, _ time.Time) error {
	f.sent = append(f.sent, capturedMail{email: email, token: rawToken})
	return nil
}

func newResetFixture() (*ResetService, *fakeUserStore, *fakeTokenStore, *fakeMail) {
	users := &fakeUserStore{
		users: map[string]model.User{
			"amy@example.com": {ID: 7, Username: "amy_tan", Email: "amy@example.com"},
		},
		passwords: map[uint64]string{},
	}
	tokens := &fakeTokenStore{tokens: map[string]uint64{}}
	mail := &fakeMail{}
	return NewResetService(users, tokens, mail, bcrypt.MinCost), users, tokens, mail
}

func TestResetRequestAndRedeem(t *testing.T) {
	svc, users, _, mail := newResetFixture()
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "amy@example.com"))
	require.Len(t, mail.sent, 1)
	raw := mail.sent[0].token
	assert.Len(t, raw, 64)

	require.NoError(t, svc.Redeem(ctx, raw, "NewSunrise1"))
	hash := users.passwords[7]
	require.NotEmpty(t, hash)
	assert.True(t, VerifyPassword(hash, "NewSunrise1"))
}

func TestResetUnknownEmailReportsSuccess(t *testing.T) {
	svc, _, tokens, mail := newResetFixture()

	require.NoError(t, svc.Request(context.Background(), "nobody@example.com"))
	assert.Empty(t, mail.sent)
	assert.Empty(t, tokens.tokens)
}

func TestResetSecondRequestSupersedesFirst(t *testing.T) {
	svc, _, _, mail := newResetFixture()
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "amy@example.com"))
	require.NoError(t, svc.Request(ctx, "amy@example.com"))
	require.Len(t, mail.sent, 2)
	first, second := mail.sent[0].token, mail.sent[1].token
	require.NotEqual(t, first, second)

	// The earlier token died when the later one was issued.
	assert.ErrorIs(t, svc.Redeem(ctx, first, "NewSunrise1"), ErrTokenInvalid)
	assert.NoError(t, svc.Redeem(ctx, second, "NewSunrise1"))
}

func TestResetRedeemIsSingleUse(t *testing.T) {
	svc, _, _, mail := newResetFixture()
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "amy@example.com"))
	raw := mail.sent[0].token

	require.NoError(t, svc.Redeem(ctx, raw, "NewSunrise1"))
	assert.ErrorIs(t, svc.Redeem(ctx, raw, "OtherPass2"), ErrTokenInvalid)
}

func TestResetRedeemGarbageToken(t *testing.T) {
	svc, _, _, _ := newResetFixture()
	err := svc.Redeem(context.Background(), "not-a-real-token", "NewSunrise1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
