package httpapi

import (
	"net/http"

	"clinicore.org/internal/rbac"
	"clinicore.org/internal/session"
)

// NavEntry is one console menu item. Entries whose permission the current
// role lacks are filtered out before the menu reaches the browser.
type NavEntry struct {
	Label string `json:"label"`
	Path  string `json:"path"`

	required rbac.Permission
}

var navEntries = []NavEntry{
	{Label: "Dashboard", Path: "/"},
	{Label: "Patients", Path: "/patients"},
	{Label: "Treatments", Path: "/treatments", required: rbac.PermReadTreatment},
	{Label: "Add Treatment", Path: "/treatments/new", required: rbac.PermCreateTreatment},
	{Label: "Medications", Path: "/medications", required: rbac.PermReadMedication},
	{Label: "Add Medication", Path: "/medications/new", required: rbac.PermCreateMedication},
	{Label: "Users", Path: "/users", required: rbac.PermReadUser},
}

// handleNavigation returns the menu for the signed-in role.
func (a *API) handleNavigation(w http.ResponseWriter, r *http.Request) {
	identity, ok := session.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	entries := make([]NavEntry, 0, len(navEntries))
	for _, entry := range navEntries {
		if entry.required != "" && !a.policy.HasPermission(identity.Role, entry.required) {
			continue
		}
		entries = append(entries, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
