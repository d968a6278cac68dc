package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, time.Hour)
}

func TestSessionIssueAndResolve(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Issue(ctx, 7, "tecnico")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	resolved, err := sm.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	require.EqualValues(t, 7, resolved.UserID)
	require.Equal(t, "tecnico", resolved.Role)
	require.Equal(t, sess.Token, resolved.Token)
}

func TestSessionResolveUnknownToken(t *testing.T) {
	sm := newTestSessionManager(t)

	_, err := sm.Resolve(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = sm.Resolve(context.Background(), "")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRevoke(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Issue(ctx, 7, "tecnico")
	require.NoError(t, err)
	require.NoError(t, sm.Revoke(ctx, sess.Token))

	_, err = sm.Resolve(ctx, sess.Token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRevokeAllForUser(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	first, err := sm.Issue(ctx, 7, "tecnico")
	require.NoError(t, err)
	second, err := sm.Issue(ctx, 7, "tecnico")
	require.NoError(t, err)
	other, err := sm.Issue(ctx, 9, "usuario")
	require.NoError(t, err)

	require.NoError(t, sm.RevokeAllForUser(ctx, 7))

	_, err = sm.Resolve(ctx, first.Token)
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = sm.Resolve(ctx, second.Token)
	require.ErrorIs(t, err, ErrSessionNotFound)

	// Other users keep their sessions.
	resolved, err := sm.Resolve(ctx, other.Token)
	require.NoError(t, err)
	require.EqualValues(t, 9, resolved.UserID)
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, TokenFromRequest(req))

	req.Header.Set("Authorization", "Basic abc")
	require.Empty(t, TokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer tok-123")
	require.Equal(t, "tok-123", TokenFromRequest(req))
}
