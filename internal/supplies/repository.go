package supplies

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const supplyColumns = `id, code, name, unit, quantity, created_at, updated_at`

func scanSupply(row pgx.Row) (Supply, error) {
	var s Supply
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Unit, &s.Quantity, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Supply{}, err
	}
	return s, nil
}

// List returns all supplies ordered by code.
func (r *Repository) List(ctx context.Context) ([]Supply, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplyColumns+` FROM supplies ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Supply
	for rows.Next() {
		s, err := scanSupply(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// Get fetches one supply.
func (r *Repository) Get(ctx context.Context, id int64) (Supply, error) {
	s, err := scanSupply(r.pool.QueryRow(ctx, `SELECT `+supplyColumns+` FROM supplies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supply{}, ErrNotFound
		}
		return Supply{}, err
	}
	return s, nil
}

// Create inserts a supply and returns its id.
func (r *Repository) Create(ctx context.Context, s Supply) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO supplies (code, name, unit, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id`, s.Code, s.Name, s.Unit, s.Quantity).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrCodeTaken
		}
		return 0, err
	}
	return id, nil
}

// AdjustQuantity applies a signed delta to the stock level. The UPDATE only
// matches when the resulting quantity stays non-negative, so a miss on an
// existing row means insufficient stock.
func (r *Repository) AdjustQuantity(ctx context.Context, id, delta int64) (Supply, error) {
	s, err := scanSupply(r.pool.QueryRow(ctx, `
		UPDATE supplies
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING `+supplyColumns, id, delta))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Supply{}, err
	}
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return Supply{}, getErr
	}
	return Supply{}, ErrInsufficientStock
}
