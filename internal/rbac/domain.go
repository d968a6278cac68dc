package rbac

import (
	"errors"
	"fmt"
	"time"
)

// Module identifies a guarded area of the application.
type Module string

// Canonical modules. "insumos", "usuarios" and "equipos" are legacy names
// kept alive through the alias resolver, not separate modules.
const (
	ModuleDashboard   Module = "dashboard"
	ModuleUsers       Module = "users"
	ModuleEquipment   Module = "equipment"
	ModuleTickets     Module = "tickets"
	ModuleReports     Module = "reports"
	ModuleProfile     Module = "profile"
	ModulePermissions Module = "permissions"
	ModuleSupplies    Module = "supplies"
)

// Action identifies what a permission allows within a module.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
	ActionAssign Action = "assign"
)

// Permission is one controllable capability, unique on (module, action).
type Permission struct {
	ID          int64
	Name        string
	Module      Module
	Action      Action
	Description string
	IsActive    bool
}

// Key returns the canonical "module:action" identifier.
func (p Permission) Key() string {
	return fmt.Sprintf("%s:%s", p.Module, p.Action)
}

// Grant ties a user to a permission. At most one row exists per
// (user, permission); revocation flips IsActive instead of deleting.
type Grant struct {
	UserID       int64
	PermissionID int64
	GrantedBy    int64
	GrantedAt    time.Time
	ExpiresAt    *time.Time
	IsActive     bool
}

// ValidAt reports whether the grant participates in authorization at t.
func (g Grant) ValidAt(t time.Time) bool {
	if !g.IsActive {
		return false
	}
	if g.ExpiresAt != nil && !g.ExpiresAt.After(t) {
		return false
	}
	return true
}

// EffectiveGrant pairs a grant with the permission it refers to.
type EffectiveGrant struct {
	Grant      Grant
	Permission Permission
}

// Actor is the already-authenticated identity authorization runs against.
// Role is the raw role string as stored; it is normalized on every use.
type Actor struct {
	ID       int64
	Role     string
	IsActive bool
}

// Decision is the outcome of an authorization check. Deny carries a
// human-readable reason; it never enumerates the grants the actor holds.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a denial for the requested capability.
func Deny(module Module, action Action) Decision {
	return Decision{Reason: fmt.Sprintf("insufficient permission for %s:%s", module, action)}
}

var (
	// ErrNotFound indicates a referenced user, permission or grant does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrEmptyCatalog indicates a role policy wanted permissions but the
	// catalog matched none. Left unhandled this locks the user out, so it is
	// surfaced instead of silently returning zero grants.
	ErrEmptyCatalog = errors.New("rbac: catalog matched no permissions for role policy")
)
