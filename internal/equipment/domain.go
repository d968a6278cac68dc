package equipment

import (
	"errors"
	"time"
)

// Equipment is one maintainable asset ("equipo" in legacy data).
type Equipment struct {
	ID           int64
	Code         string
	Name         string
	Location     string
	SerialNumber *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrNotFound indicates the asset does not exist.
	ErrNotFound = errors.New("equipment: not found")
	// ErrCodeTaken indicates a duplicate asset code.
	ErrCodeTaken = errors.New("equipment: code already in use")
)
