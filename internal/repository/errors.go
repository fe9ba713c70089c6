// Package repository provides MySQL-backed persistence for the social
// core. Sentinel errors defined here let handlers map storage outcomes
// to HTTP statuses without inspecting driver errors themselves.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrUsernameExists / ErrEmailExists are returned when a user insert or
// update trips the corresponding unique index.
var (
	ErrUsernameExists = errors.New("username already taken")
	ErrEmailExists    = errors.New("email already registered")
)

// ErrAlreadyFollowing is returned when a follow insert hits the unique
// (follower_id, followed_id) index; under concurrent duplicate requests
// exactly one insert succeeds and the rest observe this error.
var ErrAlreadyFollowing = errors.New("already following")

// ErrNotFollowing is returned by Unfollow when no edge exists.
var ErrNotFollowing = errors.New("not following")

// ErrSelfFollow is returned when a user tries to follow themselves.
var ErrSelfFollow = errors.New("cannot follow yourself")

// ErrNotFound is the generic missing-row error for lookups by username
// or id.
var ErrNotFound = errors.New("not found")

// isDuplicate reports whether err is a MySQL duplicate-entry error
// (1062), optionally scoped to a specific index name.
func isDuplicate(err error, key string) bool {
	var my *mysql.MySQLError
	if !errors.As(err, &my) || my.Number != 1062 {
		return false
	}
	return key == "" || strings.Contains(my.Message, key)
}
