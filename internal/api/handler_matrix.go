package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"laci-tracker/internal/service"
)

// Categories and fields are the two matrix axes; their handlers mirror each
// other exactly.

type matrixCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type matrixUpdateRequest struct {
	Name        *string `json:"name"`
	Rank        *int64  `json:"order"`
	Description *string `json:"description"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req matrixCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	created, err := h.categories.Create(r.Context(), actor.ID, req.Name, req.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req matrixUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	updated, err := h.categories.Update(r.Context(), actor.ID, chi.URLParam(r, "id"),
		service.MatrixPatch{Name: req.Name, Rank: req.Rank, Description: req.Description})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) listFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.fields.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func (h *Handler) createField(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req matrixCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	created, err := h.fields.Create(r.Context(), actor.ID, req.Name, req.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateField(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req matrixUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	updated, err := h.fields.Update(r.Context(), actor.ID, chi.URLParam(r, "id"),
		service.MatrixPatch{Name: req.Name, Rank: req.Rank, Description: req.Description})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
