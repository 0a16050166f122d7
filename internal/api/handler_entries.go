package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.ListByApplication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type upsertEntryRequest struct {
	CategoryID    string   `json:"categoryId"`
	FieldID       string   `json:"fieldId"`
	AssignedUsers []string `json:"assignedUsers"`
}

func (h *Handler) upsertEntry(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req upsertEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	entry, created, err := h.entries.Upsert(r.Context(), actor.ID, chi.URLParam(r, "id"),
		req.CategoryID, req.FieldID, req.AssignedUsers)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, entry)
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	err = h.entries.Delete(r.Context(), actor.ID, chi.URLParam(r, "id"), chi.URLParam(r, "entryID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type findReplaceRequest struct {
	// ApplicationID scopes the replacement; empty means all applications.
	ApplicationID string `json:"applicationId"`
	Find          string `json:"find"`
	Replace       string `json:"replace"`
}

type findReplaceResponse struct {
	Replaced int `json:"replaced"`
}

func (h *Handler) findReplace(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req findReplaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	replaced, err := h.entries.FindReplace(r.Context(), actor.ID, req.ApplicationID, req.Find, req.Replace)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, findReplaceResponse{Replaced: replaced})
}
