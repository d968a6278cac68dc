package rbac

// Role keys after normalization.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleTecnico    = "tecnico"
	RoleUsuario    = "usuario"
)

// ModuleActions selects a set of actions within one module.
type ModuleActions struct {
	Module  Module
	Actions []Action
}

// Policy is the tagged value of one role policy entry: either every
// permission in the catalog (All) or an explicit module/action list.
type Policy struct {
	All     bool
	Entries []ModuleActions
}

// PolicyTable maps normalized role keys to their default permission policy.
// It is versioned configuration, never mutated at runtime. Lookups on
// unknown keys fall back to the entry for DefaultRole, never to All.
type PolicyTable struct {
	DefaultRole string
	Roles       map[string]Policy
}

// Lookup resolves the policy for a normalized role key, falling back to the
// default role. The second return reports whether the key was known.
func (t PolicyTable) Lookup(roleKey string) (Policy, bool) {
	if p, ok := t.Roles[roleKey]; ok {
		return p, true
	}
	return t.Roles[t.DefaultRole], false
}

// Capability names one module/action pair.
type Capability struct {
	Module Module
	Action Action
}

// CarveOut is an explicit, reviewable compatibility rule consulted by the
// resolver after grant checks: a request for any module in Group is allowed
// when the actor holds a valid grant for any capability in HeldAny.
type CarveOut struct {
	Group   Module
	HeldAny []Capability
}

// ResolverConfig groups the injectable policy pieces the authorization
// resolver consults beyond the grant store.
type ResolverConfig struct {
	AdminRole string
	CarveOuts []CarveOut
	// RoleFallbacks lists capabilities a role implies even without a
	// persisted grant, the last resort before denial.
	RoleFallbacks map[string][]Capability
}

// DefaultPolicyTable returns the production role policy.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		DefaultRole: RoleUsuario,
		Roles: map[string]Policy{
			RoleAdmin: {All: true},
			RoleSupervisor: {Entries: []ModuleActions{
				{Module: ModuleTickets, Actions: []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionAssign, ActionExport}},
				{Module: ModuleEquipment, Actions: []Action{ActionView, ActionCreate, ActionEdit}},
				{Module: ModuleSupplies, Actions: []Action{ActionView, ActionCreate, ActionEdit}},
				{Module: ModuleReports, Actions: []Action{ActionView, ActionExport}},
				{Module: ModuleUsers, Actions: []Action{ActionView}},
				{Module: ModuleDashboard, Actions: []Action{ActionView}},
				{Module: ModuleProfile, Actions: []Action{ActionView, ActionEdit}},
			}},
			RoleTecnico: {Entries: []ModuleActions{
				{Module: ModuleTickets, Actions: []Action{ActionView, ActionCreate, ActionEdit}},
				{Module: ModuleEquipment, Actions: []Action{ActionView, ActionCreate, ActionEdit}},
				{Module: ModuleSupplies, Actions: []Action{ActionView}},
				{Module: ModuleDashboard, Actions: []Action{ActionView}},
				{Module: ModuleProfile, Actions: []Action{ActionView, ActionEdit}},
			}},
			RoleUsuario: {Entries: []ModuleActions{
				{Module: ModuleTickets, Actions: []Action{ActionView, ActionCreate}},
				{Module: ModuleDashboard, Actions: []Action{ActionView}},
				{Module: ModuleProfile, Actions: []Action{ActionView, ActionEdit}},
			}},
		},
	}
}

// DefaultResolverConfig returns the production resolver policy: the admin
// bypass, the single documented supplies carve-out and the role fallbacks.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		AdminRole: RoleAdmin,
		CarveOuts: []CarveOut{
			// Legacy: insumo screens predate supply permissions and were
			// reachable by anyone who could work tickets.
			{Group: ModuleSupplies, HeldAny: []Capability{
				{Module: ModuleTickets, Action: ActionView},
				{Module: ModuleTickets, Action: ActionCreate},
			}},
		},
		RoleFallbacks: map[string][]Capability{
			RoleTecnico: {
				{Module: ModuleTickets, Action: ActionView},
				{Module: ModuleTickets, Action: ActionCreate},
			},
			RoleUsuario: {
				{Module: ModuleProfile, Action: ActionView},
			},
		},
	}
}

// MinimalGrantEntries is the safe floor applied when default assignment
// keeps failing: self-service profile plus ticket visibility, so a user is
// never created with zero permissions.
func MinimalGrantEntries() []ModuleActions {
	return []ModuleActions{
		{Module: ModuleProfile, Actions: []Action{ActionView}},
		{Module: ModuleTickets, Actions: []Action{ActionView}},
	}
}
