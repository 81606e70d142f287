// Package httpapi is the HTTP surface of the console gateway. It resolves
// the session cookie on every request, gates routes by role permissions and
// proxies resource traffic to the clinical-records API.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinicore.org/internal/gate"
	"clinicore.org/internal/obs"
	"clinicore.org/internal/rbac"
	"clinicore.org/internal/records"
	"clinicore.org/internal/session"
)

// ReadyProbe reports whether downstream dependencies are reachable.
type ReadyProbe func(ctx context.Context) error

// Config carries the API dependencies.
type Config struct {
	Client *records.Client
	Policy rbac.Policy
	// Landing is where authorized users without a remembered destination
	// end up. Defaults to session.DefaultLanding.
	Landing       string
	AllowedOrigin string
	Ready         ReadyProbe
	Version       string
}

// API is the console gateway handler set.
type API struct {
	client  *records.Client
	policy  rbac.Policy
	gate    *gate.Gate
	landing string
	origin  string
	ready   ReadyProbe
	version string
}

// New constructs the API from its configuration.
func New(cfg Config) *API {
	landing := cfg.Landing
	if landing == "" {
		landing = session.DefaultLanding
	}
	return &API{
		client:  cfg.Client,
		policy:  cfg.Policy,
		gate:    gate.New(cfg.Policy),
		landing: landing,
		origin:  cfg.AllowedOrigin,
		ready:   cfg.Ready,
		version: cfg.Version,
	}
}

// Handler assembles the route table.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging)
	r.Use(SecurityHeaders)
	r.Use(CORS(a.origin))
	r.Use(obs.Instrument)

	// Public surface: health, metrics and the authentication entry points.
	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)
	r.Method(http.MethodGet, "/metrics", obs.Handler())
	r.With(RateLimit(10, 5)).Post("/login", a.handleLogin)
	r.Get("/login", a.handleLoginPage)
	r.Post("/session/token", a.handleSetToken)

	// Everything below resolves the session cookie first.
	r.Group(func(pr chi.Router) {
		pr.Use(a.withSession)

		// /session reports the state even when unauthenticated, so the
		// login page can render errors without tripping the gate.
		pr.Get("/session", a.handleSession)

		pr.With(a.requireAuth()).Get("/", a.handleHome)
		pr.With(a.requireAuth()).Post("/logout", a.handleLogout)
		pr.With(a.requireAuth()).Get("/navigation", a.handleNavigation)

		pr.Route("/api/patients", func(r chi.Router) {
			r.Use(a.requireAuth())
			r.Get("/", a.handleListPatients)
			r.Post("/", a.handleCreatePatient)
			r.Get("/{id}", a.handleGetPatient)
			r.Put("/{id}", a.handleUpdatePatient)
			r.Patch("/{id}", a.handlePatchPatient)
			r.Delete("/{id}", a.handleDeletePatient)
		})

		pr.Route("/api/treatments", func(r chi.Router) {
			r.With(a.requirePermission(rbac.PermReadTreatment)).Get("/", a.handleListTreatments)
			r.With(a.requirePermission(rbac.PermReadTreatment)).Get("/{id}", a.handleGetTreatment)
			r.With(a.requirePermission(rbac.PermCreateTreatment)).Post("/", a.handleCreateTreatment)
		})
		pr.With(a.requirePermission(rbac.PermReadTreatmentOption)).
			Get("/api/treatment-options", a.handleListTreatmentOptions)

		pr.With(a.requirePermission(rbac.PermReadMedication)).
			Get("/api/medications", a.handleListMedications)
		pr.With(a.requirePermission(rbac.PermCreateMedication)).
			Post("/api/prescriptions", a.handleCreatePrescription)

		pr.Route("/api/users", func(r chi.Router) {
			r.With(a.requirePermission(rbac.PermReadUser)).Get("/", a.handleListUsers)
			r.With(a.requirePermission(rbac.PermReadUser)).Get("/{id}", a.handleGetUser)
			r.With(a.requirePermission(rbac.PermCreateUser)).Post("/", a.handleCreateUser)
			r.With(a.requirePermission(a.policy.UpdateUser())).Put("/{id}", a.handleUpdateUser)
			r.With(a.requirePermission(rbac.PermDeleteUser)).Delete("/{id}", a.handleDeleteUser)
		})
	})

	return r
}

// handleHome is the console landing route.
func (a *API) handleHome(w http.ResponseWriter, r *http.Request) {
	identity, ok := session.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":    session.StateAuthenticated.String(),
		"identity": identity,
		"version":  a.version,
	})
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": a.version})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		if err := a.ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
