package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound indicates an unknown or expired session token.
var ErrSessionNotFound = errors.New("session not found")

// Session is the authenticated state attached to a bearer token. Role is the
// raw role string as stored on the user row; authorization normalizes it.
type Session struct {
	Token    string `json:"-"`
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	IssuedAt int64  `json:"issued_at"`
}

// SessionManager stores bearer-token sessions in Redis.
type SessionManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, ttl: ttl}
}

// Issue creates a new session for the user and returns its token.
func (sm *SessionManager) Issue(ctx context.Context, userID int64, role string) (Session, error) {
	sess := Session{
		Token:    uuid.NewString(),
		UserID:   userID,
		Role:     role,
		IssuedAt: time.Now().Unix(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return Session{}, err
	}
	if err := sm.client.Set(ctx, sm.key(sess.Token), payload, sm.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("session store: %w", err)
	}
	return sess, nil
}

// Resolve looks up the session behind a token.
func (sm *SessionManager) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionNotFound
	}
	payload, err := sm.client.Get(ctx, sm.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, err
	}
	sess.Token = token
	return sess, nil
}

// Revoke deletes a session token.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// RevokeAllForUser drops every session owned by the user, used after role
// changes so stale role strings do not linger on live tokens.
func (sm *SessionManager) RevokeAllForUser(ctx context.Context, userID int64) error {
	iter := sm.client.Scan(ctx, 0, "session:*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := sm.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if json.Unmarshal(payload, &sess) == nil && sess.UserID == userID {
			_ = sm.client.Del(ctx, iter.Val()).Err()
		}
	}
	return iter.Err()
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

func (sm *SessionManager) key(token string) string {
	return "session:" + token
}

// TokenFromRequest extracts the bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
