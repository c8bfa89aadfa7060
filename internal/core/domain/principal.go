package domain

import "strings"

// Role enumerates the dashboard roles a principal can act as.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one the dashboard knows about.
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleLandlord, RoleAdmin:
		return true
	default:
		return false
	}
}

// Principal mirrors the identity record owned by the users store.
type Principal struct {
	ID                string
	Email             string
	DisplayName       string
	Role              Role
	Phone             *string
	IsActive          bool
	IsVerified        bool
	LandlordProfileID *string
	TenantProfileID   *string
}

// HasLinkedProfile reports whether the profile required by the principal's role is present.
// Admins carry no profile.
func (p Principal) HasLinkedProfile() bool {
	switch p.Role {
	case RoleLandlord:
		return nonEmpty(p.LandlordProfileID)
	case RoleTenant:
		return nonEmpty(p.TenantProfileID)
	default:
		return true
	}
}

// PrincipalCredentials pairs a principal with its stored password hash for login.
type PrincipalCredentials struct {
	Principal    Principal
	PasswordHash string
}

func nonEmpty(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
