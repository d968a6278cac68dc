package tickets

import (
	"errors"
	"time"
)

// Status is the ticket lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// Priority orders queue handling.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Ticket is one maintenance request against a piece of equipment.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	EquipmentID *int64
	Status      Status
	Priority    Priority
	CreatedBy   int64
	AssignedTo  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	// ErrNotFound indicates the ticket does not exist.
	ErrNotFound = errors.New("tickets: not found")
	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = errors.New("tickets: invalid status transition")
)

// CanTransition reports whether a status change is allowed. Closed tickets
// are immutable; reopening means creating a new ticket.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusOpen:
		return to == StatusInProgress || to == StatusClosed
	case StatusInProgress:
		return to == StatusClosed
	default:
		return false
	}
}
