package rbac

// CatalogEntry is one seed record for the permission catalog. Seeding is
// applied with upsert-by-(module,action) semantics and must run before any
// default-grant assignment; an empty catalog yields empty grant sets.
type CatalogEntry struct {
	Module      Module
	Action      Action
	Name        string
	Description string
}

// DefaultCatalog enumerates the full (module, action) universe the system
// understands. Order is stable so reseeding is deterministic.
func DefaultCatalog() []CatalogEntry {
	type spec struct {
		module  Module
		label   string
		actions []Action
	}
	specs := []spec{
		{ModuleDashboard, "Dashboard", []Action{ActionView}},
		{ModuleUsers, "Users", []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}},
		{ModuleEquipment, "Equipment", []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport}},
		{ModuleTickets, "Tickets", []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionAssign, ActionExport}},
		{ModuleReports, "Reports", []Action{ActionView, ActionExport}},
		{ModuleProfile, "Profile", []Action{ActionView, ActionEdit}},
		{ModulePermissions, "Permissions", []Action{ActionView, ActionAssign}},
		{ModuleSupplies, "Supplies", []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}},
	}

	var entries []CatalogEntry
	for _, s := range specs {
		for _, action := range s.actions {
			entries = append(entries, CatalogEntry{
				Module:      s.module,
				Action:      action,
				Name:        s.label + " " + actionLabel(action),
				Description: "Allows " + string(action) + " on " + string(s.module),
			})
		}
	}
	return entries
}

func actionLabel(a Action) string {
	switch a {
	case ActionView:
		return "View"
	case ActionCreate:
		return "Create"
	case ActionEdit:
		return "Edit"
	case ActionDelete:
		return "Delete"
	case ActionExport:
		return "Export"
	case ActionAssign:
		return "Assign"
	default:
		return string(a)
	}
}
