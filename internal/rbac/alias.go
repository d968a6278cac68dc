package rbac

import "fmt"

// AliasSet partitions module names into groups of interchangeable
// identifiers, preserved for backward compatibility after renames.
// Each name belongs to at most one group; construction fails otherwise.
type AliasSet struct {
	groups map[Module][]Module
}

// NewAliasSet builds an AliasSet from disjoint groups.
func NewAliasSet(groups ...[]Module) (*AliasSet, error) {
	set := &AliasSet{groups: make(map[Module][]Module)}
	for _, group := range groups {
		members := append([]Module(nil), group...)
		for _, name := range group {
			if _, ok := set.groups[name]; ok {
				return nil, fmt.Errorf("rbac: module %q assigned to two alias groups", name)
			}
			set.groups[name] = members
		}
	}
	return set, nil
}

// DefaultAliases returns the alias groups the catalog was renamed through:
// supplies/insumos, users/usuarios, equipment/equipos.
func DefaultAliases() *AliasSet {
	set, err := NewAliasSet(
		[]Module{ModuleSupplies, "insumos"},
		[]Module{ModuleUsers, "usuarios"},
		[]Module{ModuleEquipment, "equipos"},
	)
	if err != nil {
		panic(err)
	}
	return set
}

// Expand returns every module name equivalent to the given one, always
// including the name itself.
func (a *AliasSet) Expand(name Module) []Module {
	if a != nil {
		if group, ok := a.groups[name]; ok {
			return group
		}
	}
	return []Module{name}
}

// SameGroup reports whether two module names are interchangeable.
func (a *AliasSet) SameGroup(x, y Module) bool {
	if x == y {
		return true
	}
	for _, m := range a.Expand(x) {
		if m == y {
			return true
		}
	}
	return false
}
