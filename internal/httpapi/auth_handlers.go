package httpapi

import (
	"errors"
	"net/http"

	"clinicore.org/internal/audit"
	"clinicore.org/internal/records"
	"clinicore.org/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	State      string            `json:"state"`
	Identity   *session.Identity `json:"identity,omitempty"`
	RedirectTo string            `json:"redirectTo,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// redirectRecorder captures the navigation effect a login triggers so the
// handler can hand the destination to the caller instead of racing two
// writes on the same response.
type redirectRecorder struct {
	to string
}

func (r *redirectRecorder) RedirectToLogin(string) {}
func (r *redirectRecorder) RedirectTo(path string) { r.to = path }

// handleLogin exchanges credentials for a session. On success the token
// cookies are set on the response and the caller receives the identity plus
// the route to continue to.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	nav := &redirectRecorder{}
	store := a.newRequestStore(w, r, session.WithNavigator(nav))
	identity, err := store.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.respondLoginError(w, r, req.Email, err)
		return
	}

	dest := sanitizeDestination(r.URL.Query().Get("from"))
	if dest == "" {
		dest = nav.to
	}
	if dest == "" {
		dest = a.landing
	}
	ctx := session.ContextWithIdentity(r.Context(), identity)
	_ = audit.LogEvent(ctx, "auth.login", map[string]any{"email": identity.Email})
	writeJSON(w, http.StatusOK, sessionResponse{
		State:      session.StateAuthenticated.String(),
		Identity:   &identity,
		RedirectTo: dest,
	})
}

func (a *API) respondLoginError(w http.ResponseWriter, r *http.Request, email string, err error) {
	_ = audit.LogEvent(r.Context(), "auth.login_failed", map[string]any{"email": email})
	var apiErr *records.APIError
	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		writeError(w, status, apiErr.Message)
	case errors.Is(err, session.ErrLoginSuperseded):
		writeError(w, http.StatusConflict, "login superseded by a newer attempt")
	case errors.Is(err, session.ErrMissingToken):
		writeError(w, http.StatusBadGateway, "authentication service returned no token")
	case errors.Is(err, records.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		writeError(w, http.StatusBadGateway, "authentication service unavailable")
	}
}

// handleLoginPage bounces already-authenticated visitors back into the
// console and tells everyone else where they stand.
func (a *API) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	store := a.newRequestStore(w, r)
	state := store.Resolve(r.Context(), "")
	if state == session.StateAuthenticated {
		dest := sanitizeDestination(r.URL.Query().Get("from"))
		if dest == "" {
			dest = a.landing
		}
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: state.String(), Error: store.Err()})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	store, ok := storeFrom(r.Context())
	if !ok {
		store = a.newRequestStore(w, r)
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	store.Logout()
	if isAPIPath(r.URL.Path) {
		writeJSON(w, http.StatusOK, sessionResponse{State: session.StateUnauthenticated.String()})
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// handleSession reports the resolved session for the current request.
func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	store, ok := storeFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	resp := sessionResponse{State: store.State().String(), Error: store.Err()}
	if identity, ok := store.Identity(); ok {
		resp.Identity = &identity
	}
	writeJSON(w, http.StatusOK, resp)
}

type setTokenRequest struct {
	Token string `json:"token"`
}

// handleSetToken adopts or clears a credential obtained outside the login
// flow. An empty token clears the session; repeating the call is harmless.
func (a *API) handleSetToken(w http.ResponseWriter, r *http.Request) {
	var req setTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	store := a.newRequestStore(w, r)
	store.SetToken(req.Token)

	resp := sessionResponse{State: store.State().String()}
	if identity, ok := store.Identity(); ok {
		resp.Identity = &identity
		ctx := session.ContextWithIdentity(r.Context(), identity)
		_ = audit.LogEvent(ctx, "auth.token_adopted", nil)
	} else {
		_ = audit.LogEvent(r.Context(), "auth.token_cleared", nil)
	}
	writeJSON(w, http.StatusOK, resp)
}
