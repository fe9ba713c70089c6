package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeojw/kampung/internal/model"
)

type pair struct{ follower, followed uint64 }

type fakeFollows struct{ edges map[pair]bool }

func (f *fakeFollows) IsFollowing(_ context.Context, followerID, followedID uint64) (bool, error) {
	return f.edges[pair{followerID, followedID}], nil
}

func TestCanMessage(t *testing.T) {
	alice := &model.User{ID: 1, Username: "alice", Privacy: model.PrivacyPublic}
	priya := &model.User{ID: 2, Username: "priya", Privacy: model.PrivacyPrivate}

	cases := []struct {
		name      string
		sender    *model.User
		recipient *model.User
		edges     map[pair]bool
		allowed   bool
	}{
		{
			name:      "public recipient, no relationship",
			sender:    priya,
			recipient: alice,
			allowed:   true,
		},
		{
			name:      "private recipient, no relationship",
			sender:    alice,
			recipient: priya,
			allowed:   false,
		},
		{
			name:      "private recipient, one-way follow",
			sender:    alice,
			recipient: priya,
			edges:     map[pair]bool{{1, 2}: true},
			allowed:   false,
		},
		{
			name:      "private recipient, reverse-only follow",
			sender:    alice,
			recipient: priya,
			edges:     map[pair]bool{{2, 1}: true},
			allowed:   false,
		},
		{
			name:      "private recipient, mutual follow",
			sender:    alice,
			recipient: priya,
			edges:     map[pair]bool{{1, 2}: true, {2, 1}: true},
			allowed:   true,
		},
		{
			name:      "self message",
			sender:    alice,
			recipient: alice,
			allowed:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAuthorizer(&fakeFollows{edges: tc.edges})
			d, err := a.CanMessage(context.Background(), tc.sender, tc.recipient)
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, d.Allowed)
			if !tc.allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

// Going private mid-conversation closes the gate immediately: the same
// authorizer, the same sender, a changed privacy value.
func TestCanMessageReactsToPrivacyChange(t *testing.T) {
	alice := &model.User{ID: 1, Privacy: model.PrivacyPublic}
	bob := &model.User{ID: 3, Privacy: model.PrivacyPublic}
	a := NewAuthorizer(&fakeFollows{edges: map[pair]bool{}})

	d, err := a.CanMessage(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	bob.Privacy = model.PrivacyPrivate
	d, err = a.CanMessage(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
