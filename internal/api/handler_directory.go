package api

import (
	"net/http"

	"laci-tracker/internal/domain"
)

// requireDirectory guards the directory routes when no backend is
// configured.
func (h *Handler) requireDirectory(w http.ResponseWriter) bool {
	if h.directory == nil {
		writeJSON(w, http.StatusServiceUnavailable,
			errorResponse{Error: "directory backend is not configured"})
		return false
	}
	return true
}

func (h *Handler) directoryUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireDirectory(w) {
		return
	}
	force := r.URL.Query().Get("force") == "true"
	users, err := h.directory.Users(r.Context(), force)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) directoryGroups(w http.ResponseWriter, r *http.Request) {
	if !h.requireDirectory(w) {
		return
	}
	force := r.URL.Query().Get("force") == "true"
	groups, err := h.directory.Groups(r.Context(), force)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) directorySearch(w http.ResponseWriter, r *http.Request) {
	if !h.requireDirectory(w) {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, h.logger, domain.ErrValidation("query parameter q is required"))
		return
	}
	results, err := h.directory.Search(r.Context(), query)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
