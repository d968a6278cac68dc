package tickets

import (
	"context"
	"fmt"
)

// RepositoryPort defines data access for the service.
type RepositoryPort interface {
	List(ctx context.Context, status *Status) ([]Ticket, error)
	Get(ctx context.Context, id int64) (Ticket, error)
	Create(ctx context.Context, t Ticket) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Assign(ctx context.Context, id, assigneeID int64) error
}

// Service handles ticket business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns tickets, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *Status) ([]Ticket, error) {
	return s.repo.List(ctx, status)
}

// Get returns one ticket.
func (s *Service) Get(ctx context.Context, id int64) (Ticket, error) {
	return s.repo.Get(ctx, id)
}

// Create opens a new ticket.
func (s *Service) Create(ctx context.Context, title, description string, equipmentID *int64, priority Priority, createdBy int64) (Ticket, error) {
	if priority == "" {
		priority = PriorityMedium
	}
	id, err := s.repo.Create(ctx, Ticket{
		Title:       title,
		Description: description,
		EquipmentID: equipmentID,
		Status:      StatusOpen,
		Priority:    priority,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return Ticket{}, fmt.Errorf("create ticket: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Transition moves a ticket through its lifecycle.
func (s *Service) Transition(ctx context.Context, id int64, to Status) (Ticket, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	if !CanTransition(current.Status, to) {
		return Ticket{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return Ticket{}, err
	}
	return s.repo.Get(ctx, id)
}

// Assign hands a ticket to a technician.
func (s *Service) Assign(ctx context.Context, id, assigneeID int64) (Ticket, error) {
	if err := s.repo.Assign(ctx, id, assigneeID); err != nil {
		return Ticket{}, err
	}
	return s.repo.Get(ctx, id)
}
