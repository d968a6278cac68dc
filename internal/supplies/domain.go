package supplies

import (
	"errors"
	"time"
)

// Supply is one consumable stock item ("insumo" in legacy data).
type Supply struct {
	ID        int64
	Code      string
	Name      string
	Unit      string
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	// ErrNotFound indicates the supply does not exist.
	ErrNotFound = errors.New("supplies: not found")
	// ErrCodeTaken indicates a duplicate supply code.
	ErrCodeTaken = errors.New("supplies: code already in use")
	// ErrInsufficientStock indicates an adjustment would leave negative stock.
	ErrInsufficientStock = errors.New("supplies: insufficient stock")
)
