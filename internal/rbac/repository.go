package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mantenix-erp/mantenix-erp/internal/platform/db"
)

// Repository provides read access to the permission catalog and grant store.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListCatalog(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	ListGrants(ctx context.Context, userID int64) ([]EffectiveGrant, error)
}

// TxRepository exposes the mutations that must run inside one transaction.
type TxRepository interface {
	ListCatalog(ctx context.Context) ([]Permission, error)
	// UpsertGrant finds-or-creates the (user, permission) grant. It reports
	// true when a row was created or reactivated, false when the grant was
	// already active (a no-op that leaves granted_by untouched).
	UpsertGrant(ctx context.Context, userID, permissionID, grantedBy int64) (bool, error)
	// DeactivateGrant soft-revokes a grant, reporting whether a row matched.
	DeactivateGrant(ctx context.Context, userID, permissionID int64) (bool, error)
	UpsertPermission(ctx context.Context, entry CatalogEntry) error
	// DeactivateExpired flips is_active off for grants whose expiry passed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const catalogColumns = `id, name, module, action, description, is_active`

func (r *repository) ListCatalog(ctx context.Context) ([]Permission, error) {
	rows, err := r.db.Query(ctx, `SELECT `+catalogColumns+` FROM permissions WHERE is_active ORDER BY module, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Module, &p.Action, &p.Description, &p.IsActive); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *repository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	var p Permission
	err := r.db.QueryRow(ctx, `SELECT `+catalogColumns+` FROM permissions WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Module, &p.Action, &p.Description, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

func (r *repository) ListGrants(ctx context.Context, userID int64) ([]EffectiveGrant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT up.user_id, up.permission_id, up.granted_by, up.granted_at, up.expires_at, up.is_active,
		       p.id, p.name, p.module, p.action, p.description, p.is_active
		FROM user_permissions up
		JOIN permissions p ON p.id = up.permission_id
		WHERE up.user_id = $1
		ORDER BY p.module, p.action`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []EffectiveGrant
	for rows.Next() {
		var eg EffectiveGrant
		var grantedAt, expiresAt pgtype.Timestamptz
		err := rows.Scan(
			&eg.Grant.UserID, &eg.Grant.PermissionID, &eg.Grant.GrantedBy, &grantedAt, &expiresAt, &eg.Grant.IsActive,
			&eg.Permission.ID, &eg.Permission.Name, &eg.Permission.Module, &eg.Permission.Action,
			&eg.Permission.Description, &eg.Permission.IsActive,
		)
		if err != nil {
			return nil, err
		}
		eg.Grant.GrantedAt = grantedAt.Time
		if expiresAt.Valid {
			t := expiresAt.Time
			eg.Grant.ExpiresAt = &t
		}
		grants = append(grants, eg)
	}
	return grants, rows.Err()
}

func (r *repository) UpsertGrant(ctx context.Context, userID, permissionID, grantedBy int64) (bool, error) {
	// The uniqueness constraint on (user_id, permission_id) makes this safe
	// under concurrent assignment: the conflict branch reactivates instead of
	// duplicating, and an already-active row matches nothing.
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_permissions (user_id, permission_id, granted_by, granted_at, expires_at, is_active)
		VALUES ($1, $2, $3, NOW(), NULL, TRUE)
		ON CONFLICT (user_id, permission_id) DO UPDATE
		SET is_active = TRUE, granted_by = EXCLUDED.granted_by, granted_at = NOW(), expires_at = NULL
		WHERE NOT user_permissions.is_active
		RETURNING permission_id`, userID, permissionID, grantedBy).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil // already active
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound // user or permission does not exist
		}
		return false, err
	}
	return true, nil
}

func (r *repository) DeactivateGrant(ctx context.Context, userID, permissionID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_permissions SET is_active = FALSE
		WHERE user_id = $1 AND permission_id = $2`, userID, permissionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) UpsertPermission(ctx context.Context, entry CatalogEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO permissions (name, module, action, description, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (module, action) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description, is_active = TRUE`,
		entry.Name, entry.Module, entry.Action, entry.Description)
	return err
}

func (r *repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_permissions SET is_active = FALSE
		WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
