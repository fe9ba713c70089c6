package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeojw/kampung/internal/auth"
	"github.com/yeojw/kampung/internal/model"
	"github.com/yeojw/kampung/internal/registration"
	"github.com/yeojw/kampung/internal/repository"
)

type fakeUsers struct {
	byIdentifier map[string]model.User
	byID         map[uint64]model.User
}

func (f *fakeUsers) GetByIdentifier(_ context.Context, identifier string) (model.User, error) {
	u, ok := f.byIdentifier[identifier]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type fakeUnread struct{ counts map[uint64]int }

func (f *fakeUnread) CountUnread(_ context.Context, userID uint64) (int, error) {
	return f.counts[userID], nil
}

func newManagerFixture(t *testing.T) (*Manager, *fakeUsers) {
	t.Helper()
	hash, err := auth.HashPassword("Sunrise99", bcrypt.MinCost)
	require.NoError(t, err)

	amy := model.User{ID: 7, Username: "amy_tan", Email: "amy@example.com", PasswordHash: hash, IsActive: true}
	users := &fakeUsers{
		byIdentifier: map[string]model.User{"amy_tan": amy, "amy@example.com": amy},
		byID:         map[uint64]model.User{7: amy},
	}
	store := NewStore(newMemKV(), 30*time.Minute)
	return NewManager(store, users, &fakeUnread{counts: map[uint64]int{7: 3}}), users
}

func TestAuthenticateBindsRotatedSession(t *testing.T) {
	mgr, _ := newManagerFixture(t)
	ctx := context.Background()

	cur, err := mgr.Sessions.Create(ctx)
	require.NoError(t, err)
	oldID := cur.ID

	fresh, user, err := mgr.Authenticate(ctx, cur, "amy_tan", "Sunrise99")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), user.ID)
	assert.Equal(t, uint64(7), fresh.UserID)
	assert.NotEqual(t, oldID, fresh.ID)

	_, err = mgr.Sessions.Get(ctx, oldID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	mgr, users := newManagerFixture(t)
	ctx := context.Background()

	inactive := users.byIdentifier["amy_tan"]
	inactive.IsActive = false
	users.byIdentifier["gone_user"] = inactive

	cases := []struct {
		name       string
		identifier string
		password   string
	}{
		{"unknown identifier", "nobody", "Sunrise99"},
		{"wrong password", "amy_tan", "WrongPass1"},
		{"inactive account", "gone_user", "Sunrise99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cur, err := mgr.Sessions.Create(ctx)
			require.NoError(t, err)
			_, _, err = mgr.Authenticate(ctx, cur, tc.identifier, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthenticateClearsInFlightRegistration(t *testing.T) {
	mgr, _ := newManagerFixture(t)
	ctx := context.Background()

	cur, err := mgr.Sessions.Create(ctx)
	require.NoError(t, err)
	cur.Registration = registration.NewState()
	require.NoError(t, mgr.Sessions.Save(ctx, cur))

	fresh, _, err := mgr.Authenticate(ctx, cur, "amy@example.com", "Sunrise99")
	require.NoError(t, err)
	assert.Nil(t, fresh.Registration)

	got, err := mgr.Sessions.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Registration)
}

func TestResolve(t *testing.T) {
	mgr, users := newManagerFixture(t)
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		p, err := mgr.Resolve(ctx, &Session{})
		require.NoError(t, err)
		assert.True(t, p.Anonymous())
	})

	t.Run("bound user with unread count", func(t *testing.T) {
		p, err := mgr.Resolve(ctx, &Session{UserID: 7})
		require.NoError(t, err)
		require.False(t, p.Anonymous())
		assert.Equal(t, "amy_tan", p.User.Username)
		assert.Equal(t, 3, p.UnreadCount)
	})

	t.Run("vanished user degrades to anonymous", func(t *testing.T) {
		delete(users.byID, 7)
		p, err := mgr.Resolve(ctx, &Session{UserID: 7})
		require.NoError(t, err)
		assert.True(t, p.Anonymous())
	})
}

func TestLogoutDestroysEverything(t *testing.T) {
	mgr, _ := newManagerFixture(t)
	ctx := context.Background()

	cur, err := mgr.Sessions.Create(ctx)
	require.NoError(t, err)
	cur.Registration = registration.NewState()
	cur.Registration.Username = "half_done"
	require.NoError(t, mgr.Sessions.Save(ctx, cur))

	require.NoError(t, mgr.Logout(ctx, cur))
	_, err = mgr.Sessions.Get(ctx, cur.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
