// Package rbac holds the static role and permission policy of the console.
// The policy is total: every role resolves to a permission set and ADMIN
// holds the union of all defined permissions.
package rbac

import "strings"

// Role is the closed set of account roles known to the console.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleDoctor Role = "DOCTOR"
	RoleNurse  Role = "NURSE"
	RoleStaff  Role = "STAFF"
)

// Roles lists every defined role.
var Roles = []Role{RoleAdmin, RoleDoctor, RoleNurse, RoleStaff}

// ParseRole maps a role claim to a known Role. Missing or unrecognized
// values fall back to STAFF, the least privileged role.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleDoctor:
		return RoleDoctor
	case RoleNurse:
		return RoleNurse
	default:
		return RoleStaff
	}
}

// Permission is an atomic capability tag of the form verb:resource.
type Permission string

const (
	PermCreateTreatment Permission = "create:treatment"
	PermReadTreatment   Permission = "read:treatment"
	PermUpdateTreatment Permission = "update:treatment"
	PermDeleteTreatment Permission = "delete:treatment"

	PermCreateTreatmentOption Permission = "create:treatment_option"
	PermReadTreatmentOption   Permission = "read:treatment_option"
	PermUpdateTreatmentOption Permission = "update:treatment_option"
	PermDeleteTreatmentOption Permission = "delete:treatment_option"

	PermCreateMedication Permission = "create:medication"
	PermReadMedication   Permission = "read:medication"
	PermUpdateMedication Permission = "update:medication"
	PermDeleteMedication Permission = "delete:medication"

	PermCreateUser Permission = "create:user"
	PermReadUser   Permission = "read:user"
	PermDeleteUser Permission = "delete:user"

	// The upstream policy ships update:user with the read:user tag. The
	// legacy value is reproduced here; Policy.StrictUserTags switches the
	// corrected tag on. See PermUpdateUserStrict.
	PermUpdateUserLegacy Permission = "read:user"
	PermUpdateUserStrict Permission = "update:user"
)

// Policy resolves roles to permission sets.
type Policy struct {
	// StrictUserTags gives update:user its own tag instead of the legacy
	// duplicate of read:user.
	StrictUserTags bool
}

// Default is the policy as shipped by the upstream console.
var Default = Policy{}

// UpdateUser returns the tag the policy uses for updating users.
func (p Policy) UpdateUser() Permission {
	if p.StrictUserTags {
		return PermUpdateUserStrict
	}
	return PermUpdateUserLegacy
}

// All returns every permission defined under the policy, deduplicated.
func (p Policy) All() []Permission {
	perms := []Permission{
		PermCreateTreatment, PermReadTreatment, PermUpdateTreatment, PermDeleteTreatment,
		PermCreateTreatmentOption, PermReadTreatmentOption, PermUpdateTreatmentOption, PermDeleteTreatmentOption,
		PermCreateMedication, PermReadMedication, PermUpdateMedication, PermDeleteMedication,
		PermCreateUser, PermReadUser, p.UpdateUser(), PermDeleteUser,
	}
	seen := make(map[Permission]struct{}, len(perms))
	out := perms[:0]
	for _, perm := range perms {
		if _, ok := seen[perm]; ok {
			continue
		}
		seen[perm] = struct{}{}
		out = append(out, perm)
	}
	return out
}

var readOnlyClinical = []Permission{
	PermReadTreatment,
	PermReadTreatmentOption,
	PermReadMedication,
}

// PermissionsFor returns the permission set held by the role. The lookup is
// total; unknown roles are normalized to STAFF before lookup.
func (p Policy) PermissionsFor(role Role) []Permission {
	switch role {
	case RoleAdmin:
		return p.All()
	case RoleDoctor:
		return []Permission{
			PermCreateTreatment,
			PermReadTreatment,
			PermUpdateTreatment,
			PermReadTreatmentOption,
			PermReadMedication,
		}
	case RoleNurse, RoleStaff:
		out := make([]Permission, len(readOnlyClinical))
		copy(out, readOnlyClinical)
		return out
	default:
		return p.PermissionsFor(RoleStaff)
	}
}

// HasPermission reports whether the role holds the permission.
func (p Policy) HasPermission(role Role, perm Permission) bool {
	for _, held := range p.PermissionsFor(role) {
		if held == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the role holds at least one of the
// requested permissions.
func (p Policy) HasAnyPermission(role Role, perms []Permission) bool {
	for _, perm := range perms {
		if p.HasPermission(role, perm) {
			return true
		}
	}
	return false
}
