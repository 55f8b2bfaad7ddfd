package rbac

// Resolve computes the effective permission set of a membership.
//
// The base set is the default role's static set or, for a custom role, customPerms.
// extra is added on top. Unless ref is Default(OWNER) the owner-reserved permissions
// are removed last, so no overlay or stored role can reintroduce them.
func Resolve(ref RoleRef, customPerms, extra Set) Set {
	var base Set
	switch ref.kind {
	case refDefault:
		base = defaultRolePermissions[ref.role]
	case refCustom:
		base = customPerms
	}
	out := base.Union(extra)
	if ref.IsOwner() {
		return out
	}
	return out.Without(ownerReserved)
}

// Has reports whether set grants p.
func Has(set Set, p Permission) bool {
	return set.Has(p)
}
