package auth

// Backend role codes used by the identity service.
// This mapping is fixed and closed; it is not derived from backend data.
const (
	backendSuperAdmin  = 1
	backendEstateAdmin = 2
	backendLandlord    = 3
	backendTenant      = 4
	backendCaretaker   = 5
	backendAgent       = 6
)

// TenantRoleID is the backend code sent for self-registration.
// Self-registration can never request any other role.
const TenantRoleID = backendTenant

// RoleFromBackendID translates the identity service's integer role code
// into a Role. Unknown codes fail closed to the most restrictive role
// (tenant) rather than erroring - a forged or future role code must never
// silently escalate.
func RoleFromBackendID(id int) Role {
	switch id {
	case backendSuperAdmin:
		return RoleSuperAdmin
	case backendEstateAdmin:
		return RoleEstateAdmin
	case backendLandlord:
		return RoleLandlord
	case backendTenant:
		return RoleTenant
	case backendCaretaker:
		return RoleCaretaker
	case backendAgent:
		return RoleAgent
	default:
		return RoleTenant
	}
}

// BackendRoleID returns the identity service's integer code for a Role.
// Unknown roles map to the tenant code, mirroring RoleFromBackendID.
func BackendRoleID(r Role) int {
	switch r {
	case RoleSuperAdmin:
		return backendSuperAdmin
	case RoleEstateAdmin:
		return backendEstateAdmin
	case RoleLandlord:
		return backendLandlord
	case RoleTenant:
		return backendTenant
	case RoleCaretaker:
		return backendCaretaker
	case RoleAgent:
		return backendAgent
	default:
		return backendTenant
	}
}
