package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mantenix-erp/mantenix-erp/internal/shared"
)

type fakeUserRepo struct {
	nextID int64
	users  map[int64]*User
	hashes map[int64]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int64]*User), hashes: make(map[int64]string)}
}

func (f *fakeUserRepo) List(context.Context) ([]User, error) {
	var out []User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Get(_ context.Context, id int64) (User, error) {
	if u, ok := f.users[id]; ok {
		return *u, nil
	}
	return User{}, shared.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, email, name, role, passwordHash string) (int64, error) {
	for _, u := range f.users {
		if u.Email == email {
			return 0, ErrEmailTaken
		}
	}
	id := f.nextID
	f.nextID++
	f.users[id] = &User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	f.hashes[id] = passwordHash
	return id, nil
}

func (f *fakeUserRepo) UpdateRole(_ context.Context, id int64, role string) error {
	u, ok := f.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := f.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	return nil
}

type assignCall struct {
	userID    int64
	role      string
	grantedBy int64
}

type fakeAssigner struct {
	calls []assignCall
	err   error
}

func (f *fakeAssigner) AssignDefaultPermissions(_ context.Context, userID int64, role string, grantedBy int64) (int, error) {
	f.calls = append(f.calls, assignCall{userID, role, grantedBy})
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

type fakeRevoker struct {
	revoked []int64
}

func (f *fakeRevoker) RevokeAllForUser(_ context.Context, userID int64) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

func TestCreateAssignsDefaultPermissions(t *testing.T) {
	repo := newFakeUserRepo()
	assigner := &fakeAssigner{}
	svc := NewService(repo, assigner, nil, nil)

	u, err := svc.Create(context.Background(), "ana@mantenix.local", "Ana", "tecnico", "secret123", 1)
	require.NoError(t, err)
	require.True(t, u.IsActive)
	require.Equal(t, []assignCall{{u.ID, "tecnico", 1}}, assigner.calls)

	// Stored hash verifies against the plaintext.
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[u.ID]), []byte("secret123")))
}

func TestCreateSurvivesAssignmentFailure(t *testing.T) {
	repo := newFakeUserRepo()
	assigner := &fakeAssigner{err: context.DeadlineExceeded}
	svc := NewService(repo, assigner, nil, nil)

	u, err := svc.Create(context.Background(), "ana@mantenix.local", "Ana", "tecnico", "secret123", 1)
	require.NoError(t, err)
	require.NotZero(t, u.ID)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, &fakeAssigner{}, nil, nil)

	_, err := svc.Create(context.Background(), "ana@mantenix.local", "Ana", "tecnico", "secret123", 1)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "ana@mantenix.local", "Ana B", "usuario", "secret123", 1)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestChangeRoleReconcilesAndRevokesSessions(t *testing.T) {
	repo := newFakeUserRepo()
	assigner := &fakeAssigner{}
	revoker := &fakeRevoker{}
	svc := NewService(repo, assigner, revoker, nil)

	u, err := svc.Create(context.Background(), "ana@mantenix.local", "Ana", "usuario", "secret123", 1)
	require.NoError(t, err)

	updated, err := svc.ChangeRole(context.Background(), u.ID, "supervisor", 1)
	require.NoError(t, err)
	require.Equal(t, "supervisor", updated.Role)
	require.Equal(t, assignCall{u.ID, "supervisor", 1}, assigner.calls[len(assigner.calls)-1])
	require.Equal(t, []int64{u.ID}, revoker.revoked)
}

func TestActorReflectsCurrentState(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, &fakeAssigner{}, nil, nil)

	u, err := svc.Create(context.Background(), "ana@mantenix.local", "Ana", "tecnico", "secret123", 1)
	require.NoError(t, err)

	actor, err := svc.Actor(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, actor.IsActive)
	require.Equal(t, "tecnico", actor.Role)

	require.NoError(t, svc.SetActive(context.Background(), u.ID, false))
	actor, err = svc.Actor(context.Background(), u.ID)
	require.NoError(t, err)
	require.False(t, actor.IsActive)
}
