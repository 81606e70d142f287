package session

import (
	"strings"

	"clinicore.org/internal/rbac"
	"clinicore.org/internal/token"
)

// Identity is the authenticated actor's resolved profile. It is always
// derived from the bearer credential (or a fresh login response) and never
// persisted on its own.
type Identity struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Role        rbac.Role         `json:"role"`
	Permissions []rbac.Permission `json:"permissions"`
}

// IdentityFromClaims builds an Identity from decoded token claims. A missing
// or unrecognized role claim falls back to STAFF; a missing permissions
// claim falls back to the policy row for the resolved role.
func IdentityFromClaims(claims token.Claims, policy rbac.Policy) Identity {
	role := rbac.ParseRole(claims.Role)
	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = "User"
	}
	return Identity{
		ID:          claims.ID,
		Name:        name,
		Email:       strings.TrimSpace(claims.Email),
		Role:        role,
		Permissions: identityPermissions(claims.Permissions, role, policy),
	}
}

// LoginResult is what the resource client returns from a successful login.
// Every field except Token is optional; claim values fill the gaps.
type LoginResult struct {
	Token       string   `json:"token"`
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// identityFromLogin merges login response fields over token claims.
func identityFromLogin(res LoginResult, policy rbac.Policy) Identity {
	claims := token.Decode(res.Token)
	id := IdentityFromClaims(claims, policy)
	if res.ID != 0 {
		id.ID = res.ID
	}
	if name := strings.TrimSpace(res.Name); name != "" {
		id.Name = name
	}
	if email := strings.TrimSpace(res.Email); email != "" {
		id.Email = email
	}
	if strings.TrimSpace(res.Role) != "" {
		id.Role = rbac.ParseRole(res.Role)
		id.Permissions = identityPermissions(res.Permissions, id.Role, policy)
	} else if len(res.Permissions) > 0 {
		id.Permissions = identityPermissions(res.Permissions, id.Role, policy)
	}
	return id
}

func identityPermissions(tags []string, role rbac.Role, policy rbac.Policy) []rbac.Permission {
	if len(tags) == 0 {
		return policy.PermissionsFor(role)
	}
	perms := make([]rbac.Permission, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		perms = append(perms, rbac.Permission(tag))
	}
	if len(perms) == 0 {
		return policy.PermissionsFor(role)
	}
	return perms
}
