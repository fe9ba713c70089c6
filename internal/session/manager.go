package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yeojw/kampung/internal/auth"
	"github.com/yeojw/kampung/internal/model"
	"github.com/yeojw/kampung/internal/repository"
)

// ErrInvalidCredentials is the single answer for every authentication
// failure - unknown identifier, wrong password, inactive account - so
// responses never reveal whether an identifier exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// identifierStore resolves login identifiers to users.
type identifierStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// unreadCounter supplies the unread badge attached to each resolved
// principal.
type unreadCounter interface {
	CountUnread(ctx context.Context, userID uint64) (int, error)
}

// Manager is the authentication/session binding service consulted on
// every request.
type Manager struct {
	Sessions      *Store
	Users         identifierStore
	Notifications unreadCounter
}

func NewManager(store *Store, users identifierStore, notifications unreadCounter) *Manager {
	return &Manager{Sessions: store, Users: users, Notifications: notifications}
}

// Authenticate verifies the identifier/password pair and, on success,
// binds a rotated session to the user. The returned session supersedes
// cur, which no longer exists.
func (m *Manager) Authenticate(ctx context.Context, cur *Session, identifier, password string) (*Session, model.User, error) {
	identifier = strings.TrimSpace(identifier)
	user, err := m.Users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.User{}, ErrInvalidCredentials
		}
		return nil, model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) || !user.IsActive {
		return nil, model.User{}, ErrInvalidCredentials
	}

	cur.UserID = user.ID
	cur.Registration = nil // a login ends any signup in flight
	fresh, err := m.Sessions.Rotate(ctx, cur)
	if err != nil {
		return nil, model.User{}, fmt.Errorf("rotate session: %w", err)
	}
	return fresh, user, nil
}

// Bind attaches a just-created user to a rotated session; used by the
// registration wizard's auto-login after step five commits.
func (m *Manager) Bind(ctx context.Context, cur *Session, userID uint64) (*Session, error) {
	cur.UserID = userID
	cur.Registration = nil
	fresh, err := m.Sessions.Rotate(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	return fresh, nil
}

// Principal is the identity resolved once per request and threaded
// through handlers explicitly - never ambient globals.
type Principal struct {
	User        model.User
	UnreadCount int
}

// Anonymous reports whether no user is bound.
func (p *Principal) Anonymous() bool { return p == nil || p.User.ID == 0 }

// Resolve loads the bound user and their unread count. A session whose
// user vanished (deleted account) degrades to anonymous.
func (m *Manager) Resolve(ctx context.Context, sess *Session) (*Principal, error) {
	if !sess.Authenticated() {
		return nil, nil
	}
	user, err := m.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	unread, err := m.Notifications.CountUnread(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	return &Principal{User: user, UnreadCount: unread}, nil
}

// Logout destroys the entire session payload, including any in-flight
// registration, so nothing survives to be replayed.
func (m *Manager) Logout(ctx context.Context, sess *Session) error {
	return m.Sessions.Destroy(ctx, sess.ID)
}
