package auth

import "testing"

func TestRoleFromBackendID(t *testing.T) {
	tests := []struct {
		name     string
		id       int
		expected Role
	}{
		{"super admin", 1, RoleSuperAdmin},
		{"estate admin", 2, RoleEstateAdmin},
		{"landlord", 3, RoleLandlord},
		{"tenant", 4, RoleTenant},
		{"caretaker", 5, RoleCaretaker},
		{"agent", 6, RoleAgent},

		// Anything outside the closed set degrades to the most
		// restrictive role rather than erroring or escalating.
		{"zero", 0, RoleTenant},
		{"negative", -1, RoleTenant},
		{"beyond range", 7, RoleTenant},
		{"far beyond range", 999, RoleTenant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleFromBackendID(tt.id); got != tt.expected {
				t.Errorf("RoleFromBackendID(%d) = %q, want %q", tt.id, got, tt.expected)
			}
		})
	}
}

func TestBackendRoleID_RoundTrip(t *testing.T) {
	for _, role := range ValidRoles {
		id := BackendRoleID(role)
		if got := RoleFromBackendID(id); got != role {
			t.Errorf("round trip for %q: got %q via id %d", role, got, id)
		}
	}
}

func TestBackendRoleID_UnknownRole(t *testing.T) {
	if got := BackendRoleID(Role("superuser")); got != TenantRoleID {
		t.Errorf("BackendRoleID(unknown) = %d, want %d", got, TenantRoleID)
	}
}
