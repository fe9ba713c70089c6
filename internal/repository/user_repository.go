package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/yeojw/kampung/internal/model"
)

// UserRepo provides access to the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, username, email, password_hash, display_name, bio, location, phone,
	website, avatar_ref, privacy, gender, age_group, date_of_birth, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u   model.User
		dob sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.Bio, &u.Location, &u.Phone, &u.Website, &u.AvatarRef, &u.Privacy,
		&u.Gender, &u.AgeGroup, &dob, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	if dob.Valid {
		d := dob.Time
		u.DateOfBirth = &d
	}
	return u, nil
}

// Create inserts the user assembled by the registration wizard. The
// unique indexes on username and email are the authority for duplicate
// resolution: a race that slipped past the wizard's pre-checks surfaces
// here as ErrUsernameExists or ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, display_name, avatar_ref, privacy, date_of_birth, is_active)
		 VALUES (?,?,?,?,?,?,?,1)`,
		u.Username, strings.ToLower(u.Email), u.PasswordHash, u.DisplayName,
		u.AvatarRef, u.Privacy, u.DateOfBirth)
	if err != nil {
		switch {
		case isDuplicate(err, "uq_users_username"):
			return ErrUsernameExists
		case isDuplicate(err, "uq_users_email"):
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id))
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username=? LIMIT 1`, username))
}

// GetByIdentifier resolves a login identifier that may be either a
// username or an email address. Emails are matched lowercased.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username=? OR email=? LIMIT 1`,
		identifier, strings.ToLower(identifier)))
}

// UsernameExists reports whether any user holds the given username.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username=?`, username).Scan(&n)
	return n > 0, err
}

// EmailExists reports whether any user holds the given email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email=?`, strings.ToLower(email)).Scan(&n)
	return n > 0, err
}

// ProfileUpdate carries the editable profile fields. A nil DateOfBirth
// leaves the stored value untouched.
type ProfileUpdate struct {
	Username    string
	DisplayName string
	Bio         string
	Location    string
	Phone       string
	Website     string
	Privacy     string
	Gender      string
	AgeGroup    string
	DateOfBirth *time.Time
	AvatarRef   string // empty keeps the current avatar
}

// UpdateProfile applies a profile edit. Username changes go through the
// same unique index as Create.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET username=?, display_name=?, bio=?, location=?, phone=?, website=?,
		 privacy=?, gender=?, age_group=?,
		 date_of_birth=COALESCE(?, date_of_birth),
		 avatar_ref=IF(?='', avatar_ref, ?),
		 updated_at=UTC_TIMESTAMP()
		 WHERE id=?`,
		p.Username, p.DisplayName, p.Bio, p.Location, p.Phone, p.Website,
		p.Privacy, p.Gender, p.AgeGroup, p.DateOfBirth, p.AvatarRef, p.AvatarRef, id)
	if isDuplicate(err, "uq_users_username") {
		return ErrUsernameExists
	}
	return err
}

// UpdatePassword replaces the stored credential hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=?, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		passwordHash, id)
	return err
}

// Search matches usernames and display names case-insensitively,
// capped at limit rows in username order.
func (r *UserRepo) Search(ctx context.Context, query string, limit int) ([]model.User, error) {
	pattern := "%" + query + "%"
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE is_active=1 AND (username LIKE ? OR display_name LIKE ?)
		 ORDER BY username ASC LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// Delete removes the user row. Follow edges, messages, notifications
// and reset tokens cascade at the schema level.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func collectUsers(rows *sql.Rows) ([]model.User, error) {
	users := []model.User{}
	for rows.Next() {
		var (
			u   model.User
			dob sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName,
			&u.Bio, &u.Location, &u.Phone, &u.Website, &u.AvatarRef, &u.Privacy,
			&u.Gender, &u.AgeGroup, &dob, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if dob.Valid {
			d := dob.Time
			u.DateOfBirth = &d
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
