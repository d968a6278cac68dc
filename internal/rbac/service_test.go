package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	catalog    []Permission
	nextPermID int64
	grants     map[int64]map[int64]*Grant

	failTxTimes   int
	listGrantsErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{grants: make(map[int64]map[int64]*Grant), nextPermID: 1}
}

func (f *fakeRepo) addPermission(module Module, action Action) Permission {
	p := Permission{
		ID:       f.nextPermID,
		Name:     string(module) + " " + string(action),
		Module:   module,
		Action:   action,
		IsActive: true,
	}
	f.nextPermID++
	f.catalog = append(f.catalog, p)
	return p
}

func (f *fakeRepo) permission(module Module, action Action) Permission {
	for _, p := range f.catalog {
		if p.Module == module && p.Action == action {
			return p
		}
	}
	panic("permission not in fake catalog: " + string(module) + ":" + string(action))
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if f.failTxTimes > 0 {
		f.failTxTimes--
		return errors.New("tx failed")
	}
	return fn(ctx, f)
}

func (f *fakeRepo) ListCatalog(context.Context) ([]Permission, error) {
	var active []Permission
	for _, p := range f.catalog {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

func (f *fakeRepo) GetPermission(_ context.Context, id int64) (Permission, error) {
	for _, p := range f.catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Permission{}, ErrNotFound
}

func (f *fakeRepo) ListGrants(_ context.Context, userID int64) ([]EffectiveGrant, error) {
	if f.listGrantsErr != nil {
		return nil, f.listGrantsErr
	}
	var out []EffectiveGrant
	for _, g := range f.grants[userID] {
		perm, err := f.GetPermission(context.Background(), g.PermissionID)
		if err != nil {
			return nil, err
		}
		out = append(out, EffectiveGrant{Grant: *g, Permission: perm})
	}
	return out, nil
}

func (f *fakeRepo) UpsertGrant(_ context.Context, userID, permissionID, grantedBy int64) (bool, error) {
	if _, err := f.GetPermission(context.Background(), permissionID); err != nil {
		return false, err
	}
	byPerm, ok := f.grants[userID]
	if !ok {
		byPerm = make(map[int64]*Grant)
		f.grants[userID] = byPerm
	}
	if g, ok := byPerm[permissionID]; ok {
		if g.IsActive {
			return false, nil
		}
		g.IsActive = true
		g.GrantedBy = grantedBy
		g.GrantedAt = time.Now()
		g.ExpiresAt = nil
		return true, nil
	}
	byPerm[permissionID] = &Grant{
		UserID:       userID,
		PermissionID: permissionID,
		GrantedBy:    grantedBy,
		GrantedAt:    time.Now(),
		IsActive:     true,
	}
	return true, nil
}

func (f *fakeRepo) DeactivateGrant(_ context.Context, userID, permissionID int64) (bool, error) {
	if g, ok := f.grants[userID][permissionID]; ok {
		g.IsActive = false
		return true, nil
	}
	return false, nil
}

func (f *fakeRepo) UpsertPermission(_ context.Context, entry CatalogEntry) error {
	for i, p := range f.catalog {
		if p.Module == entry.Module && p.Action == entry.Action {
			f.catalog[i].Name = entry.Name
			f.catalog[i].Description = entry.Description
			f.catalog[i].IsActive = true
			return nil
		}
	}
	f.addPermission(entry.Module, entry.Action)
	return nil
}

func (f *fakeRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	var swept int64
	for _, byPerm := range f.grants {
		for _, g := range byPerm {
			if g.IsActive && g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
				g.IsActive = false
				swept++
			}
		}
	}
	return swept, nil
}

func (f *fakeRepo) activeGrantCount(userID int64) int {
	count := 0
	for _, g := range f.grants[userID] {
		if g.IsActive {
			count++
		}
	}
	return count
}

// workshopCatalog is the reduced catalog used across assignment tests.
func workshopCatalog(repo *fakeRepo) {
	repo.addPermission(ModuleTickets, ActionView)
	repo.addPermission(ModuleTickets, ActionCreate)
	repo.addPermission(ModuleTickets, ActionEdit)
	repo.addPermission(ModuleEquipment, ActionView)
	repo.addPermission(ModuleEquipment, ActionCreate)
	repo.addPermission(ModuleEquipment, ActionEdit)
	repo.addPermission(ModuleSupplies, ActionView)
	repo.addPermission(ModuleProfile, ActionView)
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, DefaultPolicyTable(), DefaultAliases(), nil, nil)
}

func TestAssignDefaultPermissionsTecnico(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	svc := newTestService(repo)

	granted, err := svc.AssignDefaultPermissions(context.Background(), 7, "Técnico", 1)
	require.NoError(t, err)
	require.Equal(t, 8, granted)
	require.Equal(t, 8, repo.activeGrantCount(7))
}

func TestAssignDefaultPermissionsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	svc := newTestService(repo)

	first, err := svc.AssignDefaultPermissions(context.Background(), 7, "tecnico", 1)
	require.NoError(t, err)
	require.Equal(t, 8, first)

	second, err := svc.AssignDefaultPermissions(context.Background(), 7, "tecnico", 1)
	require.NoError(t, err)
	require.Zero(t, second)
	require.Equal(t, 8, repo.activeGrantCount(7))
}

func TestAssignDefaultPermissionsAdminGetsFullCatalog(t *testing.T) {
	repo := newFakeRepo()
	for _, entry := range DefaultCatalog() {
		repo.addPermission(entry.Module, entry.Action)
	}
	svc := newTestService(repo)

	granted, err := svc.AssignDefaultPermissions(context.Background(), 1, "admin", 1)
	require.NoError(t, err)
	require.Equal(t, len(repo.catalog), granted)
}

func TestAssignDefaultPermissionsReactivatesRevokedGrant(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	svc := newTestService(repo)

	_, err := svc.AssignDefaultPermissions(context.Background(), 7, "tecnico", 1)
	require.NoError(t, err)

	edit := repo.permission(ModuleTickets, ActionEdit)
	require.NoError(t, svc.Revoke(context.Background(), 7, edit.ID))
	require.Equal(t, 7, repo.activeGrantCount(7))

	granted, err := svc.AssignDefaultPermissions(context.Background(), 7, "tecnico", 1)
	require.NoError(t, err)
	require.Equal(t, 1, granted)
	require.Equal(t, 8, repo.activeGrantCount(7))
	// One row per (user, permission), never duplicated by reassignment.
	require.Len(t, repo.grants[7], 8)
}

func TestAssignDefaultPermissionsUnknownRoleFallsBackToDefault(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	svc := newTestService(repo)

	granted, err := svc.AssignDefaultPermissions(context.Background(), 9, "gerente", 1)
	require.NoError(t, err)
	// usuario policy against the reduced catalog: tickets view/create, profile view.
	require.Equal(t, 3, granted)

	grants, err := svc.EffectiveGrants(context.Background(), 9)
	require.NoError(t, err)
	for _, eg := range grants {
		require.NotEqual(t, ModuleEquipment, eg.Permission.Module)
	}
}

func TestAssignDefaultPermissionsEmptyCatalog(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	granted, err := svc.AssignDefaultPermissions(context.Background(), 7, "tecnico", 1)
	require.ErrorIs(t, err, ErrEmptyCatalog)
	require.Zero(t, granted)
}

func TestAssignDefaultPermissionsRetriesOnce(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	repo.failTxTimes = 1
	svc := newTestService(repo)

	granted, err := svc.AssignDefaultPermissions(context.Background(), 7, "tecnico", 1)
	require.NoError(t, err)
	require.Equal(t, 8, granted)
}

func TestAssignDefaultPermissionsFallsBackToMinimalSet(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	repo.failTxTimes = 2
	svc := newTestService(repo)

	granted, err := svc.AssignDefaultPermissions(context.Background(), 7, "tecnico", 1)
	require.NoError(t, err)
	// profile:view + tickets:view only, the user is never left with nothing.
	require.Equal(t, 2, granted)
	require.Equal(t, 2, repo.activeGrantCount(7))
}

func TestGrantUnknownPermission(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	svc := newTestService(repo)

	err := svc.Grant(context.Background(), 7, 999, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRevokeWithoutGrant(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	svc := newTestService(repo)

	view := repo.permission(ModuleTickets, ActionView)
	err := svc.Revoke(context.Background(), 7, view.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEffectiveGrantsFiltersExpired(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	svc := newTestService(repo)

	_, err := svc.AssignDefaultPermissions(context.Background(), 7, "usuario", 1)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	view := repo.permission(ModuleTickets, ActionView)
	repo.grants[7][view.ID].ExpiresAt = &past

	grants, err := svc.EffectiveGrants(context.Background(), 7)
	require.NoError(t, err)
	for _, eg := range grants {
		require.NotEqual(t, view.ID, eg.Permission.ID)
	}
}

func TestViewableModules(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	svc := newTestService(repo)

	_, err := svc.AssignDefaultPermissions(context.Background(), 7, "tecnico", 1)
	require.NoError(t, err)

	modules, err := svc.ViewableModules(context.Background(), 7)
	require.NoError(t, err)
	require.ElementsMatch(t, []Module{ModuleTickets, ModuleEquipment, ModuleSupplies, ModuleProfile}, modules)
}

func TestSweepExpired(t *testing.T) {
	repo := newFakeRepo()
	workshopCatalog(repo)
	svc := newTestService(repo)

	_, err := svc.AssignDefaultPermissions(context.Background(), 7, "usuario", 1)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	view := repo.permission(ModuleTickets, ActionView)
	repo.grants[7][view.ID].ExpiresAt = &past

	swept, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, swept)
	require.False(t, repo.grants[7][view.ID].IsActive)
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.SeedCatalog(context.Background(), DefaultCatalog()))
	seeded := len(repo.catalog)
	require.NoError(t, svc.SeedCatalog(context.Background(), DefaultCatalog()))
	require.Equal(t, seeded, len(repo.catalog))
}
