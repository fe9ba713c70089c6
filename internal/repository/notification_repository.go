package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/yeojw/kampung/internal/model"
)

// NotificationRepo is the append-only notification ledger. Rows are
// created inside the follow/unfollow transactions and only ever mutated
// to set their read timestamp.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// createNotificationTx appends a notification within the caller's
// transaction. Used by FollowRepo so the graph mutation and its ledger
// entry commit as one unit.
func createNotificationTx(ctx context.Context, tx *sql.Tx, userID uint64, kind model.NotificationKind, actorID uint64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, actor_id) VALUES (?,?,?)`,
		userID, kind, actorID)
	return err
}

// NotificationItem joins each ledger row with its actor's names for
// display.
type NotificationItem struct {
	model.Notification
	ActorUsername    string
	ActorDisplayName string
}

// ListByUser returns the user's notifications newest first. Pages are
// requested explicitly by the caller.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]NotificationItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT n.id, n.user_id, n.kind, n.actor_id, n.created_at, n.read_at,
		        a.username, a.display_name
		 FROM notifications n
		 JOIN users a ON a.id = n.actor_id
		 WHERE n.user_id=?
		 ORDER BY n.created_at DESC, n.id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []NotificationItem{}
	for rows.Next() {
		var (
			it     NotificationItem
			readAt sql.NullTime
		)
		if err := rows.Scan(&it.ID, &it.UserID, &it.Kind, &it.ActorID, &it.CreatedAt,
			&readAt, &it.ActorUsername, &it.ActorDisplayName); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			it.ReadAt = &t
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountUnread returns the number of unread notifications for the user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id=? AND read_at IS NULL`,
		userID).Scan(&n)
	return n, err
}

// MarkAllRead stamps every currently-unread notification in one batch
// update and returns how many rows transitioned.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64, at time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET read_at=? WHERE user_id=? AND read_at IS NULL`,
		at.UTC(), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
