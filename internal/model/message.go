package model

import "time"

// MaxMessageLen caps the body of a direct message.
const MaxMessageLen = 500

// Message is a direct message between two users. Writes only happen
// after the privacy gate has approved the sender/recipient pair.
type Message struct {
	ID          uint64
	SenderID    uint64
	RecipientID uint64
	Body        string
	CreatedAt   time.Time
}
