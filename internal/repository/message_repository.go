package repository

import (
	"context"
	"database/sql"

	"github.com/yeojw/kampung/internal/model"
)

// MessageRepo persists direct messages. Authorization happens above
// this layer; by the time Create runs the privacy gate has approved the
// pair.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// Create appends a message and fills in the generated ID.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO messages (sender_id, recipient_id, body) VALUES (?,?,?)`,
		m.SenderID, m.RecipientID, m.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// ListConversation returns messages exchanged between two users, newest
// first, paginated.
func (r *MessageRepo) ListConversation(ctx context.Context, a, b uint64, limit, offset int) ([]model.Message, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, sender_id, recipient_id, body, created_at FROM messages
		 WHERE (sender_id=? AND recipient_id=?) OR (sender_id=? AND recipient_id=?)
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		a, b, b, a, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
