package auth

import (
	"errors"
	"regexp"
	"time"
)

// emailPattern is a pragmatic format check: one @ with a dotted domain.
// Real validation happens at the identity service; this only rejects
// obvious garbage before a network call is made.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidEmail checks if an email address meets basic format requirements.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleSuperAdmin has global scope across every estate.
	RoleSuperAdmin Role = "super_admin"

	// RoleEstateAdmin administers a single estate.
	RoleEstateAdmin Role = "estate_admin"

	// RoleLandlord owns properties within an estate.
	RoleLandlord Role = "landlord"

	// RoleTenant occupies a property. This is the most restrictive role and
	// the fail-closed default for any unmapped role value.
	RoleTenant Role = "tenant"

	// RoleCaretaker maintains properties on behalf of landlords.
	RoleCaretaker Role = "caretaker"

	// RoleAgent lists and shows properties.
	RoleAgent Role = "agent"
)

// ValidRoles is the closed set of roles, ordered loosely by scope breadth.
var ValidRoles = []Role{
	RoleSuperAdmin,
	RoleEstateAdmin,
	RoleLandlord,
	RoleTenant,
	RoleCaretaker,
	RoleAgent,
}

// IsValidRole returns true if the role is one of the six defined roles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Identity represents the authenticated principal.
type Identity struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Role        Role       `json:"role"`
	HouseNumber string     `json:"house_number,omitempty"`
	EstateID    string     `json:"estate_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// Session pairs an Identity with its opaque bearer token.
type Session struct {
	Identity Identity `json:"identity"`
	Token    string   `json:"token"`
}

// Authenticated reports whether the session carries a usable credential.
// A session without a non-empty token is never considered authenticated.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Profile holds the caller-supplied fields for self-registration.
// Role is intentionally absent: new identities always register as tenant.
type Profile struct {
	Name  string
	Email string
	Phone string
}

// Sentinel errors for session operations.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmptyPassword      = errors.New("password must not be empty")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistrationDenied = errors.New("registration rejected")
	ErrIdentityInactive   = errors.New("identity is inactive")
	ErrAttemptInFlight    = errors.New("a login or registration is already in flight")
	ErrSessionExpired     = errors.New("session expired, sign in again")
	ErrNotAuthenticated   = errors.New("not authenticated")
)
