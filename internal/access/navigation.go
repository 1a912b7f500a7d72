package access

import (
	"github.com/westapp/estatehub-core/internal/auth"
)

// EntryLogin is the destination for unauthenticated (or fully gated) users.
const EntryLogin = "login"

// NavigationItem is a navigable section and the closed set of roles
// allowed to reach it.
type NavigationItem struct {
	ID    string
	Name  string
	Roles []auth.Role
}

// allRoles is shorthand for sections every signed-in role may see.
var allRoles = []auth.Role{
	auth.RoleSuperAdmin,
	auth.RoleEstateAdmin,
	auth.RoleLandlord,
	auth.RoleTenant,
	auth.RoleCaretaker,
	auth.RoleAgent,
}

// DefaultNavigation returns the canonical navigation registry. Order is a
// presentation contract: VisibleNavigation preserves it, and ResolveEntry
// picks the first visible entry, so dashboard-first matters.
func DefaultNavigation() []NavigationItem {
	return []NavigationItem{
		{ID: "dashboard", Name: "Dashboard", Roles: allRoles},
		{ID: "user-management", Name: "User Management", Roles: []auth.Role{auth.RoleSuperAdmin, auth.RoleEstateAdmin}},
		{ID: "estate-management", Name: "Estate Management", Roles: []auth.Role{auth.RoleSuperAdmin}},
		{ID: "properties", Name: "Properties", Roles: []auth.Role{auth.RoleSuperAdmin, auth.RoleEstateAdmin, auth.RoleLandlord, auth.RoleCaretaker}},
		{ID: "charges", Name: "Charges", Roles: []auth.Role{auth.RoleSuperAdmin, auth.RoleEstateAdmin}},
		{ID: "payments", Name: "Payments", Roles: []auth.Role{auth.RoleLandlord, auth.RoleTenant}},
		{ID: "defaulters", Name: "Defaulters", Roles: []auth.Role{auth.RoleSuperAdmin, auth.RoleEstateAdmin}},
		{ID: "reports", Name: "Reports", Roles: []auth.Role{auth.RoleSuperAdmin, auth.RoleEstateAdmin}},
		{ID: "notifications", Name: "Notifications", Roles: []auth.Role{auth.RoleSuperAdmin, auth.RoleEstateAdmin, auth.RoleLandlord, auth.RoleTenant}},
		{ID: "roles-permissions", Name: "Roles & Permissions", Roles: []auth.Role{auth.RoleSuperAdmin}},
		{ID: "settings", Name: "Settings", Roles: []auth.Role{auth.RoleSuperAdmin, auth.RoleEstateAdmin}},
	}
}

// Router answers visibility and gating queries against a fixed registry.
type Router struct {
	items   []NavigationItem
	allowed map[string]map[auth.Role]bool
}

// NewRouter builds a router over the given registry. Pass
// DefaultNavigation() for the standard sections.
func NewRouter(items []NavigationItem) *Router {
	allowed := make(map[string]map[auth.Role]bool, len(items))
	for _, item := range items {
		roleSet := make(map[auth.Role]bool, len(item.Roles))
		for _, role := range item.Roles {
			roleSet[role] = true
		}
		allowed[item.ID] = roleSet
	}
	return &Router{items: items, allowed: allowed}
}

// VisibleNavigation returns the sections the identity may see, in
// registration order. A missing identity sees nothing.
func (r *Router) VisibleNavigation(identity *auth.Identity) []NavigationItem {
	if identity == nil {
		return nil
	}
	var visible []NavigationItem
	for _, item := range r.items {
		if r.CanAccess(identity, item.ID) {
			visible = append(visible, item)
		}
	}
	return visible
}

// CanAccess reports whether the identity may reach the section. Both menu
// rendering and deep-link guarding go through this predicate. Unknown
// section IDs, missing identities, and inactive identities all gate closed.
func (r *Router) CanAccess(identity *auth.Identity, itemID string) bool {
	if identity == nil || !identity.IsActive {
		return false
	}
	return r.allowed[itemID][identity.Role]
}

// ResolveEntry returns the destination for a top-level redirect: login for
// unauthenticated users, otherwise the first section the identity may see.
// An identity that can see nothing falls back to login rather than landing
// on a gated section.
func (r *Router) ResolveEntry(identity *auth.Identity) string {
	if identity == nil {
		return EntryLogin
	}
	for _, item := range r.items {
		if r.CanAccess(identity, item.ID) {
			return item.ID
		}
	}
	return EntryLogin
}
