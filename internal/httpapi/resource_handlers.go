package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinicore.org/internal/audit"
	"clinicore.org/internal/records"
)

// respondUpstreamError translates a records client failure into the
// console's response. A 401 from upstream voids the whole session, not just
// the one call.
func (a *API) respondUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, records.ErrSessionExpired) {
		a.expireSession(w, r)
		return
	}
	var apiErr *records.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest {
		writeError(w, apiErr.Status, apiErr.Error())
		return
	}
	writeError(w, http.StatusBadGateway, "clinical records service unavailable")
}

// Patients -----------------------------------------------------------------

func (a *API) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := a.client.ListPatients(r.Context())
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (a *API) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := a.client.GetPatient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (a *API) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var in records.CreatePatient
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patient, err := a.client.CreatePatient(r.Context(), in)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, patient)
}

func (a *API) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	var in records.UpdatePatient
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patient, err := a.client.UpdatePatient(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (a *API) handlePatchPatient(w http.ResponseWriter, r *http.Request) {
	var in records.UpdatePatient
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patient, err := a.client.PatchPatient(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (a *API) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.client.DeletePatient(r.Context(), id); err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "patient.deleted", map[string]any{"patient_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// Treatments ---------------------------------------------------------------

func (a *API) handleListTreatments(w http.ResponseWriter, r *http.Request) {
	treatments, err := a.client.ListTreatments(r.Context())
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, treatments)
}

func (a *API) handleGetTreatment(w http.ResponseWriter, r *http.Request) {
	treatment, err := a.client.GetTreatment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, treatment)
}

func (a *API) handleCreateTreatment(w http.ResponseWriter, r *http.Request) {
	var in records.CreateTreatment
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	treatment, err := a.client.CreateTreatment(r.Context(), in)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, treatment)
}

func (a *API) handleListTreatmentOptions(w http.ResponseWriter, r *http.Request) {
	options, err := a.client.ListTreatmentOptions(r.Context())
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

// Medications --------------------------------------------------------------

func (a *API) handleListMedications(w http.ResponseWriter, r *http.Request) {
	medications, err := a.client.ListMedications(r.Context())
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, medications)
}

func (a *API) handleCreatePrescription(w http.ResponseWriter, r *http.Request) {
	var in records.CreatePrescription
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prescription, err := a.client.CreatePrescription(r.Context(), in)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, prescription)
}

// Users --------------------------------------------------------------------

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.client.ListUsers(r.Context())
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.client.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in records.CreateUser
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.client.CreateUser(r.Context(), in)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.created", map[string]any{"email": in.Email})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in records.UpdateUser
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	user, err := a.client.UpdateUser(r.Context(), id, in)
	if err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.updated", map[string]any{"user_id": id})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.client.DeleteUser(r.Context(), id); err != nil {
		a.respondUpstreamError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.deleted", map[string]any{"user_id": id})
	w.WriteHeader(http.StatusNoContent)
}
