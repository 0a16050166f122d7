package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"laci-tracker/internal/service"
)

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	showDisabled := r.URL.Query().Get("showDisabled") == "true"
	apps, err := h.applications.List(r.Context(), showDisabled)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.applications.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) getApplicationByName(w http.ResponseWriter, r *http.Request) {
	app, err := h.applications.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

type createApplicationRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createApplication(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req createApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	app, err := h.applications.Create(r.Context(), actor.ID, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

type updateApplicationRequest struct {
	Name    *string `json:"name"`
	Enabled *bool   `json:"enabled"`
}

func (h *Handler) updateApplication(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req updateApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	app, err := h.applications.Update(r.Context(), actor.ID, chi.URLParam(r, "id"),
		service.ApplicationPatch{Name: req.Name, Enabled: req.Enabled})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) updateApplicationByName(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req updateApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	app, err := h.applications.UpdateByName(r.Context(), actor.ID, chi.URLParam(r, "name"),
		service.ApplicationPatch{Name: req.Name, Enabled: req.Enabled})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) recordApplicationHit(w http.ResponseWriter, r *http.Request) {
	if err := h.applications.RecordHit(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteApplication(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.applications.Delete(r.Context(), actor.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
