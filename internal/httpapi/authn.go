package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"clinicore.org/internal/audit"
	"clinicore.org/internal/gate"
	"clinicore.org/internal/obs"
	"clinicore.org/internal/rbac"
	"clinicore.org/internal/session"
)

const loginPath = "/login"

type storeContextKey struct{}

func contextWithStore(ctx context.Context, store *session.Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

func storeFrom(ctx context.Context) (*session.Store, bool) {
	store, ok := ctx.Value(storeContextKey{}).(*session.Store)
	return store, ok && store != nil
}

// newRequestStore binds a session store to this HTTP exchange: credential
// reads come from the request's cookies, writes land on the response.
func (a *API) newRequestStore(w http.ResponseWriter, r *http.Request, opts ...session.Option) *session.Store {
	base := []session.Option{
		session.WithPolicy(a.policy),
		session.WithLanding(a.landing),
	}
	return session.NewStore(
		session.NewCookieCredentials(w, r),
		a.client,
		append(base, opts...)...,
	)
}

// withSession resolves the persisted credential before any protected
// handler runs. The resolved identity and raw token travel in the request
// context; navigation effects are left to the gate decision below.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := a.newRequestStore(w, r)
		store.Resolve(r.Context(), r.URL.Path)

		ctx := contextWithStore(r.Context(), store)
		if identity, ok := store.Identity(); ok {
			ctx = session.ContextWithIdentity(ctx, identity)
			ctx = session.ContextWithToken(ctx, store.Token())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission gates a route. The gate produces a pure decision; this
// middleware turns it into the HTTP effect: API paths answer JSON status
// codes, page paths answer redirects.
func (a *API) requirePermission(required rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, ok := storeFrom(r.Context())
			if !ok {
				// Route wired outside withSession; fail closed.
				a.applyDecision(w, r, gate.RedirectToLogin, required)
				return
			}
			decision := a.gate.GuardStore(store, required)
			obs.CountGateDecision(decision.String())
			if decision == gate.Allow {
				next.ServeHTTP(w, r)
				return
			}
			a.applyDecision(w, r, decision, required)
		})
	}
}

func (a *API) requireAuth() func(http.Handler) http.Handler {
	return a.requirePermission(gate.NoPermission)
}

func (a *API) applyDecision(w http.ResponseWriter, r *http.Request, decision gate.Decision, required rbac.Permission) {
	switch decision {
	case gate.RedirectToFallback:
		_ = audit.LogEvent(r.Context(), "access.denied", map[string]any{
			"path":       r.URL.Path,
			"permission": string(required),
		})
		if isAPIPath(r.URL.Path) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		http.Redirect(w, r, a.landing, http.StatusSeeOther)
	default:
		if isAPIPath(r.URL.Path) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		redirectToLogin(w, r, r.URL.Path)
	}
}

// expireSession clears the persisted credential after the upstream rejected
// it and forces re-authentication.
func (a *API) expireSession(w http.ResponseWriter, r *http.Request) {
	if store, ok := storeFrom(r.Context()); ok {
		store.Logout()
	} else {
		session.NewCookieCredentials(w, r).Clear()
	}
	_ = audit.LogEvent(r.Context(), "session.expired", map[string]any{"path": r.URL.Path})
	if isAPIPath(r.URL.Path) {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	redirectToLogin(w, r, r.URL.Path)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, from string) {
	target := loginPath
	if from = sanitizeDestination(from); from != "" && from != "/" {
		target += "?from=" + url.QueryEscape(from)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// sanitizeDestination keeps redirect targets inside the console. Anything
// that is not a local absolute path is dropped.
func sanitizeDestination(dest string) string {
	if dest == "" || !strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "//") {
		return ""
	}
	return dest
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}
