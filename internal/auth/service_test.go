package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mantenix-erp/mantenix-erp/internal/shared"
)

type fakeAuthRepo struct {
	users map[string]*User
}

func (f *fakeAuthRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func testUser(t *testing.T, email, password string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{ID: 1, Email: email, Role: "tecnico", PasswordHash: string(hash), IsActive: active}
}

func TestAuthenticate(t *testing.T) {
	repo := &fakeAuthRepo{users: map[string]*User{
		"ana@mantenix.local": testUser(t, "ana@mantenix.local", "secret123", true),
	}}
	svc := NewService(repo)

	u, err := svc.Authenticate(context.Background(), "ana@mantenix.local", "secret123")
	require.NoError(t, err)
	require.Equal(t, "ana@mantenix.local", u.Email)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	repo := &fakeAuthRepo{users: map[string]*User{
		"ana@mantenix.local":  testUser(t, "ana@mantenix.local", "secret123", true),
		"baja@mantenix.local": testUser(t, "baja@mantenix.local", "secret123", false),
	}}
	svc := NewService(repo)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown account", "nadie@mantenix.local", "secret123"},
		{"wrong password", "ana@mantenix.local", "wrong"},
		{"disabled account", "baja@mantenix.local", "secret123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
			require.ErrorIs(t, err, shared.ErrInvalidCredentials)
		})
	}
}
