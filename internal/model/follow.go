package model

import "time"

// Follow is a directed edge in the follow graph. The pair
// (FollowerID, FollowedID) is unique at the storage layer and a user
// can never follow themselves.
type Follow struct {
	ID         uint64
	FollowerID uint64
	FollowedID uint64
	CreatedAt  time.Time
}
