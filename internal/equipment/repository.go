package equipment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const equipmentColumns = `id, code, name, location, serial_number, is_active, created_at, updated_at`

func scanEquipment(row pgx.Row) (Equipment, error) {
	var e Equipment
	var serial pgtype.Text
	err := row.Scan(&e.ID, &e.Code, &e.Name, &e.Location, &serial, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Equipment{}, err
	}
	if serial.Valid {
		e.SerialNumber = &serial.String
	}
	return e, nil
}

// List returns all active equipment ordered by code.
func (r *Repository) List(ctx context.Context) ([]Equipment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE is_active ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// Get fetches one asset.
func (r *Repository) Get(ctx context.Context, id int64) (Equipment, error) {
	e, err := scanEquipment(r.pool.QueryRow(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Equipment{}, ErrNotFound
		}
		return Equipment{}, err
	}
	return e, nil
}

// Create inserts an asset and returns its id.
func (r *Repository) Create(ctx context.Context, e Equipment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO equipment (code, name, location, serial_number, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		RETURNING id`, e.Code, e.Name, e.Location, e.SerialNumber).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrCodeTaken
		}
		return 0, err
	}
	return id, nil
}
