// Package social holds the privacy gate that decides whether one user
// may message another.
package social

import (
	"context"
	"fmt"

	"github.com/yeojw/kampung/internal/model"
)

// followChecker is the slice of the follow repository the gate needs.
type followChecker interface {
	IsFollowing(ctx context.Context, followerID, followedID uint64) (bool, error)
}

// Decision is the outcome of a messaging authorization check. Reason is
// set only on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorizer evaluates the messaging privacy gate. The same check runs
// before a message is persisted and before composition affordances are
// shown on a profile.
type Authorizer struct {
	Follows followChecker
}

func NewAuthorizer(follows followChecker) *Authorizer { return &Authorizer{Follows: follows} }

// CanMessage allows messaging a public recipient unconditionally, and a
// private recipient only when both follow directions exist.
func (a *Authorizer) CanMessage(ctx context.Context, sender, recipient *model.User) (Decision, error) {
	if sender.ID == recipient.ID {
		return Decision{Reason: "you cannot message yourself"}, nil
	}
	if !recipient.IsPrivate() {
		return Decision{Allowed: true}, nil
	}

	follows, err := a.Follows.IsFollowing(ctx, sender.ID, recipient.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("check follow: %w", err)
	}
	followedBy, err := a.Follows.IsFollowing(ctx, recipient.ID, sender.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("check follow: %w", err)
	}
	if follows && followedBy {
		return Decision{Allowed: true}, nil
	}
	return Decision{Reason: "private profiles accept messages from mutual followers only"}, nil
}
