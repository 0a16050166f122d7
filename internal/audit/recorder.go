package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"laci-tracker/internal/domain"
)

// Recorder appends audit records. A failed append is logged and swallowed:
// the business mutation it describes has already committed, and rolling it
// back for the sake of the trail would trade user-visible consistency for
// auditability.
type Recorder struct {
	repo   domain.AuditRepository
	logger *slog.Logger
}

func NewRecorder(repo domain.AuditRepository, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record appends one audit record. Records with an empty change payload are
// suppressed for add/change/delete actions so no-op updates never pollute
// the log; login/logout records are always written.
func (r *Recorder) Record(ctx context.Context, actor string, action domain.AuditAction, target domain.AuditTarget, targetID string, changes domain.ChangeSet) {
	switch action {
	case domain.AuditAdd, domain.AuditChange, domain.AuditDelete:
		if changes.Empty() {
			r.logger.Debug("empty change set, skipping audit record",
				"action", action, "target", target, "targetId", targetID)
			return
		}
	}

	log := &domain.AuditLog{
		ID:       uuid.NewString(),
		Actor:    actor,
		Action:   action,
		Target:   target,
		TargetID: targetID,
		Changes:  changes,
	}
	if err := r.repo.Insert(ctx, log); err != nil {
		r.logger.Error("audit write failed; mutation stands",
			"action", action, "target", target, "targetId", targetID, "error", err)
	}
}
