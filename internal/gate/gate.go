// Package gate decides whether the current session may reach a route. The
// decision is a plain value; navigation side effects belong to the caller.
package gate

import (
	"clinicore.org/internal/rbac"
	"clinicore.org/internal/session"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Allow admits the request.
	Allow Decision = iota
	// RedirectToLogin sends an unauthenticated user to the login entry
	// point, remembering the attempted destination.
	RedirectToLogin
	// RedirectToFallback sends an authenticated but unauthorized user to
	// the configured landing route.
	RedirectToFallback
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToFallback:
		return "redirect_to_fallback"
	default:
		return "deny"
	}
}

// NoPermission marks a route that only requires authentication.
const NoPermission = rbac.Permission("")

// Gate evaluates sessions against the permission policy. Decisions are
// computed fresh on every call; the identity can change between
// navigations, so nothing is cached.
type Gate struct {
	policy rbac.Policy
}

// New returns a Gate over the given policy.
func New(policy rbac.Policy) *Gate {
	return &Gate{policy: policy}
}

// Guard decides access for a session in the given state. A loading session
// is unknown access and is never admitted. required may be NoPermission.
func (g *Gate) Guard(state session.State, identity *session.Identity, required rbac.Permission) Decision {
	if state != session.StateAuthenticated || identity == nil {
		return RedirectToLogin
	}
	if required != NoPermission && !g.policy.HasPermission(identity.Role, required) {
		return RedirectToFallback
	}
	return Allow
}

// GuardStore is Guard applied to a session store snapshot.
func (g *Gate) GuardStore(store *session.Store, required rbac.Permission) Decision {
	identity, ok := store.Identity()
	if !ok {
		return g.Guard(store.State(), nil, required)
	}
	return g.Guard(store.State(), &identity, required)
}
