package model

import (
	"fmt"
	"time"
)

// NotificationKind is the closed set of events the ledger records.
// Stored as a string column but only these values are ever written.
type NotificationKind string

const (
	NotificationFollow   NotificationKind = "follow"
	NotificationUnfollow NotificationKind = "unfollow"
)

// Valid reports whether k is one of the known kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationFollow, NotificationUnfollow:
		return true
	}
	return false
}

// Notification belongs to exactly one recipient. ReadAt is nil until the
// recipient views their notification list; entries are never deleted.
type Notification struct {
	ID        uint64
	UserID    uint64
	Kind      NotificationKind
	ActorID   uint64
	CreatedAt time.Time
	ReadAt    *time.Time
}

// Message renders the human-readable line shown to the recipient.
func (n *Notification) Message(actorName string) string {
	switch n.Kind {
	case NotificationFollow:
		return fmt.Sprintf("%s followed you.", actorName)
	case NotificationUnfollow:
		return fmt.Sprintf("%s unfollowed you.", actorName)
	}
	return ""
}
