package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserName(t *testing.T) {
	u := User{Username: "amy_tan"}
	assert.Equal(t, "amy_tan", u.Name())

	u.DisplayName = "Amy Tan"
	assert.Equal(t, "Amy Tan", u.Name())
}

func TestNotificationKindValid(t *testing.T) {
	assert.True(t, NotificationFollow.Valid())
	assert.True(t, NotificationUnfollow.Valid())
	assert.False(t, NotificationKind("like").Valid())
	assert.False(t, NotificationKind("").Valid())
}

func TestNotificationMessage(t *testing.T) {
	n := Notification{Kind: NotificationFollow}
	assert.Equal(t, "Amy Tan followed you.", n.Message("Amy Tan"))

	n.Kind = NotificationUnfollow
	assert.Equal(t, "Amy Tan unfollowed you.", n.Message("Amy Tan"))
}
