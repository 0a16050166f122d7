package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"laci-tracker/internal/domain"
)

func (h *Handler) listApprovals(w http.ResponseWriter, r *http.Request) {
	approvals, err := h.approvals.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, approvals)
}

type setApprovalRequest struct {
	Approved bool `json:"approved"`
}

func (h *Handler) setApproval(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req setApprovalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	err = h.approvals.SetApproval(r.Context(), identity, actor.ID, chi.URLParam(r, "id"), req.Approved)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listApprovers(w http.ResponseWriter, r *http.Request) {
	approvers, err := h.approvers.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, approvers)
}

type addApproverRequest struct {
	Type        domain.ApproverType `json:"type"`
	DisplayName string              `json:"displayName"`
	Identifier  string              `json:"identifier"`
}

func (h *Handler) addApprover(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req addApproverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	added, err := h.approvers.Add(r.Context(), identity, actor.ID, req.Type, req.DisplayName, req.Identifier)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *Handler) removeApprover(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.approvers.Remove(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	lastDays := 0
	if raw := r.URL.Query().Get("lastDays"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, h.logger, domain.ErrValidation("lastDays must be a non-negative integer"))
			return
		}
		lastDays = n
	}
	records, err := h.audit.Logs(r.Context(), lastDays)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
