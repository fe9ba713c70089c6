// Package session binds opaque cookie identifiers to server-side state
// held in Redis. The whole payload - identity binding, CSRF token and
// any in-progress registration - lives under one key with a fixed TTL,
// so logout and expiry destroy everything at once.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yeojw/kampung/internal/auth"
	"github.com/yeojw/kampung/internal/registration"
)

// CookieName is the session cookie issued to browsers.
const CookieName = "kampung_session"

// ErrNotFound is returned when the session ID is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is the server-side payload behind one cookie. UserID zero
// means anonymous.
type Session struct {
	ID           string              `json:"-"`
	UserID       uint64              `json:"user_id"`
	CSRFToken    string              `json:"csrf_token"`
	Registration *registration.State `json:"registration,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Authenticated reports whether the session is bound to a user.
func (s *Session) Authenticated() bool { return s.UserID != 0 }

// KV is the small slice of Redis the store needs. Kept narrow so tests
// can swap in an in-memory map.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// RedisKV adapts *redis.Client to KV.
type RedisKV struct{ Client *redis.Client }

func (r RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.Client.Set(ctx, key, value, ttl).Err()
}

func (r RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r RedisKV) Del(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}

// Store creates, loads and destroys sessions.
type Store struct {
	kv  KV
	ttl time.Duration
}

func NewStore(kv KV, ttl time.Duration) *Store { return &Store{kv: kv, ttl: ttl} }

// TTL returns the session lifetime, used for the cookie max-age.
func (s *Store) TTL() time.Duration { return s.ttl }

func sessionKey(id string) string { return "sess:" + id }

// Create issues a fresh anonymous session with its own CSRF token.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	id, err := auth.NewRawToken()
	if err != nil {
		return nil, err
	}
	csrf, err := auth.NewRawToken()
	if err != nil {
		return nil, err
	}
	sess := &Session{ID: id, CSRFToken: csrf, CreatedAt: time.Now().UTC()}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads the payload behind an ID. ErrNotFound for unknown or
// expired sessions.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.kv.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	sess.ID = id
	return &sess, nil
}

// Save writes the payload back and refreshes the TTL.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.kv.Set(ctx, sessionKey(sess.ID), string(raw), s.ttl)
}

// Destroy removes the payload entirely; nothing under the old ID can
// be replayed afterwards.
func (s *Store) Destroy(ctx context.Context, id string) error {
	return s.kv.Del(ctx, sessionKey(id))
}

// Rotate replaces the session ID and CSRF token while carrying the
// user binding over, and deletes the old key. Run on every privilege
// change so a pre-login cookie can never ride into an authenticated
// session.
func (s *Store) Rotate(ctx context.Context, old *Session) (*Session, error) {
	fresh, err := s.Create(ctx)
	if err != nil {
		return nil, err
	}
	fresh.UserID = old.UserID
	if err := s.Save(ctx, fresh); err != nil {
		return nil, err
	}
	if err := s.Destroy(ctx, old.ID); err != nil {
		return nil, err
	}
	return fresh, nil
}
