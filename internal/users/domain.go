package users

import "time"

// User represents a user account. Role is stored as text for historical
// reasons; it is normalized into a policy key wherever permissions are
// derived from it.
type User struct {
	ID        int64
	Email     string
	Name      string
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
