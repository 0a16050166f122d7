package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"laci-tracker/internal/domain"
)

type ApprovalRepo struct {
	db *sql.DB
}

func NewApprovalRepo(db *sql.DB) *ApprovalRepo {
	return &ApprovalRepo{db: db}
}

const approvalColumns = `id, application_id, approver_id, approved_at`

func (r *ApprovalRepo) Get(ctx context.Context, applicationID string) (*domain.Approval, error) {
	var a domain.Approval
	err := r.db.QueryRowContext(ctx,
		`SELECT `+approvalColumns+` FROM approvals WHERE application_id = ?`, applicationID).
		Scan(&a.ID, &a.ApplicationID, &a.ApproverID, &a.ApprovedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &a, nil
}

func (r *ApprovalRepo) List(ctx context.Context) ([]domain.Approval, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+approvalColumns+` FROM approvals`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	approvals := []domain.Approval{}
	for rows.Next() {
		var a domain.Approval
		if err := rows.Scan(&a.ID, &a.ApplicationID, &a.ApproverID, &a.ApprovedAt); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// Approve upserts the approval row and writes the matching audit record in
// one transaction. A sign-off without its trail entry (or the reverse) must
// never be observable.
func (r *ApprovalRepo) Approve(ctx context.Context, applicationID, approverID string) error {
	payload, err := json.Marshal(domain.Added(map[string]any{"approval": "approved"}))
	if err != nil {
		return err
	}

	return inTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO approvals (id, application_id, approver_id)
			 VALUES (?, ?, ?)
			 ON CONFLICT(application_id) DO UPDATE SET
			     approver_id = excluded.approver_id,
			     approved_at = CURRENT_TIMESTAMP`,
			uuid.NewString(), applicationID, approverID); err != nil {
			return mapDBError(err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO audit (id, actor, action, target, target_id, changes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), approverID, string(domain.AuditChange),
			string(domain.TargetApplication), applicationID, string(payload))
		return err
	})
}

func (r *ApprovalRepo) Revoke(ctx context.Context, applicationID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM approvals WHERE application_id = ?`, applicationID)
	return err
}
