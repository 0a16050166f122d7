package api

import (
	"encoding/json"
	"net/http"
)

// myResponsibilities streams the caller's responsibility scan as NDJSON:
// one event object per line, flushed as produced, terminated by a done or
// error event. Clients that disconnect cancel the scan via the request
// context.
func (h *Handler) myResponsibilities(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	showDisabled := r.URL.Query().Get("showDisabled") == "true"

	events, err := h.scanner.Scan(r.Context(), identity, showDisabled)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			// Client went away; the context cancellation stops the producer.
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
