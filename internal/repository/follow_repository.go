package repository

import (
	"context"
	"database/sql"

	"github.com/yeojw/kampung/internal/model"
)

// FollowRepo owns the follow graph. Every successful follow/unfollow
// writes its notification in the same transaction, so a relationship
// change can never be durably recorded without the matching ledger
// entry.
type FollowRepo struct{ DB *sql.DB }

func NewFollowRepo(db *sql.DB) *FollowRepo { return &FollowRepo{DB: db} }

// Follow inserts the (follower, followed) edge. The unique index on the
// pair arbitrates concurrent duplicates: the loser sees
// ErrAlreadyFollowing and no second row exists.
func (r *FollowRepo) Follow(ctx context.Context, followerID, followedID uint64) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO follows (follower_id, followed_id) VALUES (?,?)`,
		followerID, followedID); err != nil {
		if isDuplicate(err, "uq_follows_pair") {
			return ErrAlreadyFollowing
		}
		return err
	}
	if err := createNotificationTx(ctx, tx, followedID, model.NotificationFollow, followerID); err != nil {
		return err
	}
	return tx.Commit()
}

// Unfollow removes the edge and records the unfollow notification
// atomically. ErrNotFollowing when no edge existed.
func (r *FollowRepo) Unfollow(ctx context.Context, followerID, followedID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id=? AND followed_id=?`,
		followerID, followedID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFollowing
	}
	if err := createNotificationTx(ctx, tx, followedID, model.NotificationUnfollow, followerID); err != nil {
		return err
	}
	return tx.Commit()
}

// IsFollowing reports whether the directed edge exists.
func (r *FollowRepo) IsFollowing(ctx context.Context, followerID, followedID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id=? AND followed_id=?`,
		followerID, followedID).Scan(&n)
	return n > 0, err
}

// CountFollowers returns how many users follow the given user.
func (r *FollowRepo) CountFollowers(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE followed_id=?`, userID).Scan(&n)
	return n, err
}

// CountFollowing returns how many users the given user follows.
func (r *FollowRepo) CountFollowing(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id=?`, userID).Scan(&n)
	return n, err
}

// Followers lists the users following userID, newest edges first.
// Pages are revealed by explicit caller action, so plain LIMIT/OFFSET.
func (r *FollowRepo) Followers(ctx context.Context, userID uint64, limit, offset int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+prefixedUserColumns+` FROM users u
		 JOIN follows f ON f.follower_id = u.id
		 WHERE f.followed_id=?
		 ORDER BY f.created_at DESC, u.id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// Following lists the users userID follows, newest edges first.
func (r *FollowRepo) Following(ctx context.Context, userID uint64, limit, offset int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+prefixedUserColumns+` FROM users u
		 JOIN follows f ON f.followed_id = u.id
		 WHERE f.follower_id=?
		 ORDER BY f.created_at DESC, u.id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// Mutuals returns users who follow target and are also followed by
// viewer: the intersection of target's followers and viewer's
// following, paginated in username order.
func (r *FollowRepo) Mutuals(ctx context.Context, viewerID, targetID uint64, limit, offset int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+prefixedUserColumns+` FROM users u
		 JOIN follows tf ON tf.follower_id = u.id AND tf.followed_id = ?
		 JOIN follows vf ON vf.followed_id = u.id AND vf.follower_id = ?
		 ORDER BY u.username ASC LIMIT ? OFFSET ?`,
		targetID, viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

const prefixedUserColumns = `u.id, u.username, u.email, u.password_hash, u.display_name, u.bio,
	u.location, u.phone, u.website, u.avatar_ref, u.privacy, u.gender, u.age_group,
	u.date_of_birth, u.is_active, u.created_at, u.updated_at`
