package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestResolver(repo *fakeRepo) *Resolver {
	return NewResolver(repo, DefaultAliases(), DefaultResolverConfig(), nil)
}

func seedUsuario(t *testing.T, repo *fakeRepo, userID int64) {
	t.Helper()
	svc := newTestService(repo)
	_, err := svc.AssignDefaultPermissions(context.Background(), userID, "usuario", 1)
	require.NoError(t, err)
}

func TestAuthorizeGrantBacked(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	seedUsuario(t, repo, 7)
	resolver := newTestResolver(repo)
	actor := Actor{ID: 7, Role: "usuario", IsActive: true}

	decision := resolver.Authorize(context.Background(), actor, ModuleTickets, ActionCreate)
	require.True(t, decision.Allowed)

	decision = resolver.Authorize(context.Background(), actor, ModuleEquipment, ActionDelete)
	require.False(t, decision.Allowed)
	require.Equal(t, "insufficient permission for equipment:delete", decision.Reason)
}

func TestAuthorizeAdminBypass(t *testing.T) {
	repo := newFakeRepo()
	resolver := newTestResolver(repo)

	// No grants at all; the role alone is sufficient, diacritics included.
	for _, role := range []string{"admin", "Admin", "ADMIN  "} {
		decision := resolver.Authorize(context.Background(), Actor{ID: 1, Role: role, IsActive: true}, ModuleUsers, ActionDelete)
		require.True(t, decision.Allowed, "role %q", role)
	}
}

func TestAuthorizeInactiveActor(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	seedUsuario(t, repo, 7)
	resolver := newTestResolver(repo)

	decision := resolver.Authorize(context.Background(), Actor{ID: 7, Role: "admin", IsActive: false}, ModuleTickets, ActionView)
	require.False(t, decision.Allowed)
}

func TestAuthorizeAliasEquivalence(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	resolver := newTestResolver(repo)
	svc := newTestService(repo)

	supplies := repo.permission(ModuleSupplies, ActionView)
	require.NoError(t, svc.Grant(context.Background(), 4, supplies.ID, 1))
	actor := Actor{ID: 4, Role: "usuario", IsActive: true}

	for _, name := range []Module{ModuleSupplies, "insumos"} {
		decision := resolver.Authorize(context.Background(), actor, name, ActionView)
		require.True(t, decision.Allowed, "module %q", name)
	}
}

func TestAuthorizeValidityFiltering(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	resolver := newTestResolver(repo)
	svc := newTestService(repo)

	edit := repo.permission(ModuleEquipment, ActionEdit)
	require.NoError(t, svc.Grant(context.Background(), 4, edit.ID, 1))
	actor := Actor{ID: 4, Role: "supervisor", IsActive: true}

	require.True(t, resolver.Authorize(context.Background(), actor, ModuleEquipment, ActionEdit).Allowed)

	past := time.Now().Add(-time.Second)
	repo.grants[4][edit.ID].ExpiresAt = &past
	require.False(t, resolver.Authorize(context.Background(), actor, ModuleEquipment, ActionEdit).Allowed)

	repo.grants[4][edit.ID].ExpiresAt = nil
	repo.grants[4][edit.ID].IsActive = false
	require.False(t, resolver.Authorize(context.Background(), actor, ModuleEquipment, ActionEdit).Allowed)
}

func TestAuthorizeDeactivatedPermissionDefinition(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	resolver := newTestResolver(repo)
	svc := newTestService(repo)

	view := repo.permission(ModuleTickets, ActionView)
	require.NoError(t, svc.Grant(context.Background(), 4, view.ID, 1))

	// Retiring the catalog entry invalidates every grant referencing it.
	for i := range repo.catalog {
		if repo.catalog[i].ID == view.ID {
			repo.catalog[i].IsActive = false
		}
	}
	actor := Actor{ID: 4, Role: "supervisor", IsActive: true}
	require.False(t, resolver.Authorize(context.Background(), actor, ModuleTickets, ActionView).Allowed)
}

func TestAuthorizeSuppliesCarveOut(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	resolver := newTestResolver(repo)
	svc := newTestService(repo)

	// Holds tickets:create but no supplies grant at all.
	create := repo.permission(ModuleTickets, ActionCreate)
	require.NoError(t, svc.Grant(context.Background(), 4, create.ID, 1))
	actor := Actor{ID: 4, Role: "supervisor", IsActive: true}

	require.True(t, resolver.Authorize(context.Background(), actor, ModuleSupplies, ActionView).Allowed)
	require.True(t, resolver.Authorize(context.Background(), actor, "insumos", ActionView).Allowed)
}

func TestAuthorizeRoleFallbacks(t *testing.T) {
	repo := newFakeRepo()
	resolver := newTestResolver(repo)

	// No grants persisted for either actor.
	tecnico := Actor{ID: 5, Role: "Técnico", IsActive: true}
	require.True(t, resolver.Authorize(context.Background(), tecnico, ModuleTickets, ActionView).Allowed)
	require.True(t, resolver.Authorize(context.Background(), tecnico, ModuleTickets, ActionCreate).Allowed)
	require.False(t, resolver.Authorize(context.Background(), tecnico, ModuleTickets, ActionDelete).Allowed)

	usuario := Actor{ID: 6, Role: "usuario", IsActive: true}
	require.True(t, resolver.Authorize(context.Background(), usuario, ModuleProfile, ActionView).Allowed)
	require.False(t, resolver.Authorize(context.Background(), usuario, ModuleProfile, ActionEdit).Allowed)
}

func TestAuthorizeFailsClosedOnStorageError(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	seedUsuario(t, repo, 7)
	repo.listGrantsErr = errors.New("connection refused")
	resolver := newTestResolver(repo)

	decision := resolver.Authorize(context.Background(), Actor{ID: 7, Role: "usuario", IsActive: true}, ModuleTickets, ActionView)
	require.False(t, decision.Allowed)
}
