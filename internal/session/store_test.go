package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeojw/kampung/internal/registration"
)

// memKV is an in-memory KV for tests; TTLs are recorded, not enforced.
type memKV struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *memKV) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestStoreCreateAndGet(t *testing.T) {
	kv := newMemKV()
	store := NewStore(kv, 30*time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.NotEmpty(t, sess.CSRFToken)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, 30*time.Minute, kv.ttls[sessionKey(sess.ID)])

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.CSRFToken, got.CSRFToken)
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewStore(newMemKV(), time.Minute)
	_, err := store.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRoundTripsRegistrationState(t *testing.T) {
	store := NewStore(newMemKV(), time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)

	st := registration.NewState()
	st.Step = 3
	st.Username = "amy_tan"
	st.Email = "amy@example.com"
	sess.Registration = st
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Registration)
	assert.Equal(t, 3, got.Registration.Step)
	assert.Equal(t, "amy_tan", got.Registration.Username)
}

func TestStoreDestroy(t *testing.T) {
	store := NewStore(newMemKV(), time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Destroy(ctx, sess.ID))

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRotate(t *testing.T) {
	store := NewStore(newMemKV(), time.Minute)
	ctx := context.Background()

	old, err := store.Create(ctx)
	require.NoError(t, err)
	old.UserID = 42
	require.NoError(t, store.Save(ctx, old))

	fresh, err := store.Rotate(ctx, old)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fresh.ID)
	assert.NotEqual(t, old.CSRFToken, fresh.CSRFToken)
	assert.Equal(t, uint64(42), fresh.UserID)

	// The old ID is dead.
	_, err = store.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
