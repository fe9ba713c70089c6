package repository

import (
	"context"
	"database/sql"

	"github.com/yeojw/kampung/internal/model"
)

// HobbyRepo manages the hobby catalogue and each user's selection.
type HobbyRepo struct{ DB *sql.DB }

func NewHobbyRepo(db *sql.DB) *HobbyRepo { return &HobbyRepo{DB: db} }

// List returns the full catalogue in name order.
func (r *HobbyRepo) List(ctx context.Context) ([]model.Hobby, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name FROM hobbies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hobbies := []model.Hobby{}
	for rows.Next() {
		var h model.Hobby
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, err
		}
		hobbies = append(hobbies, h)
	}
	return hobbies, rows.Err()
}

// ListForUser returns the hobbies the user selected.
func (r *HobbyRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Hobby, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT h.id, h.name FROM hobbies h
		 JOIN user_hobbies uh ON uh.hobby_id = h.id
		 WHERE uh.user_id=? ORDER BY h.name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hobbies := []model.Hobby{}
	for rows.Next() {
		var h model.Hobby
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, err
		}
		hobbies = append(hobbies, h)
	}
	return hobbies, rows.Err()
}

// ReplaceForUser swaps the user's selection for the given hobby IDs in
// one transaction. An empty slice clears the selection.
func (r *HobbyRepo) ReplaceForUser(ctx context.Context, userID uint64, hobbyIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_hobbies WHERE user_id=?`, userID); err != nil {
		return err
	}
	for _, hid := range hobbyIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO user_hobbies (user_id, hobby_id)
			 SELECT ?, id FROM hobbies WHERE id=?`, userID, hid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Seed inserts the default catalogue if the table is empty.
func (r *HobbyRepo) Seed(ctx context.Context, names []string) error {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM hobbies`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, name := range names {
		if _, err := r.DB.ExecContext(ctx,
			`INSERT IGNORE INTO hobbies (name) VALUES (?)`, name); err != nil {
			return err
		}
	}
	return nil
}
