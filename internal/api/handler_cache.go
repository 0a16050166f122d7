package api

import (
	"net/http"

	"laci-tracker/internal/domain"
)

// clearCache drops one cache key. Admin only; the key vocabulary is the
// caller's to know.
func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !h.approvers.IsAdmin(identity) {
		writeError(w, h.logger, domain.ErrAccessDenied("only administrators clear cache keys"))
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, h.logger, domain.ErrValidation("query parameter key is required"))
		return
	}

	h.cacheCtl.Invalidate(r.Context(), key)
	h.logger.Info("cache key cleared", "key", key, "by", identity.Email)
	w.WriteHeader(http.StatusNoContent)
}
