package tickets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
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

const ticketColumns = `id, title, description, equipment_id, status, priority, created_by, assigned_to, created_at, updated_at`

func scanTicket(row pgx.Row) (Ticket, error) {
	var t Ticket
	var equipmentID, assignedTo pgtype.Int8
	err := row.Scan(&t.ID, &t.Title, &t.Description, &equipmentID, &t.Status, &t.Priority,
		&t.CreatedBy, &assignedTo, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Ticket{}, err
	}
	if equipmentID.Valid {
		t.EquipmentID = &equipmentID.Int64
	}
	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.Int64
	}
	return t, nil
}

// List returns tickets, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status *Status) ([]Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// Get fetches one ticket.
func (r *Repository) Get(ctx context.Context, id int64) (Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, ErrNotFound
		}
		return Ticket{}, err
	}
	return t, nil
}

// Create inserts a ticket and returns its id.
func (r *Repository) Create(ctx context.Context, t Ticket) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tickets (title, description, equipment_id, status, priority, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`,
		t.Title, t.Description, t.EquipmentID, t.Status, t.Priority, t.CreatedBy).Scan(&id)
	return id, err
}

// UpdateStatus moves a ticket to a new status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tickets SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Assign sets the assignee.
func (r *Repository) Assign(ctx context.Context, id, assigneeID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tickets SET assigned_to = $2, updated_at = NOW() WHERE id = $1`, id, assigneeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
