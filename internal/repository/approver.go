package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"laci-tracker/internal/domain"
)

type ApproverRepo struct {
	db *sql.DB
}

func NewApproverRepo(db *sql.DB) *ApproverRepo {
	return &ApproverRepo{db: db}
}

const approverColumns = `id, type, display_name, identifier,
	COALESCE(created_by_id, ''), created_at`

func (r *ApproverRepo) List(ctx context.Context) ([]domain.Approver, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+approverColumns+` FROM approvers ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	approvers := []domain.Approver{}
	for rows.Next() {
		var a domain.Approver
		if err := rows.Scan(&a.ID, &a.Type, &a.DisplayName, &a.Identifier,
			&a.CreatedByID, &a.CreatedAt); err != nil {
			return nil, err
		}
		approvers = append(approvers, a)
	}
	return approvers, rows.Err()
}

func (r *ApproverRepo) Add(ctx context.Context, a *domain.Approver) (*domain.Approver, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO approvers (id, type, display_name, identifier, created_by_id)
		 VALUES (?, ?, ?, ?, NULLIF(?, ''))`,
		id, string(a.Type), a.DisplayName, a.Identifier, a.CreatedByID)
	if err != nil {
		return nil, mapDBError(err)
	}

	var out domain.Approver
	err = r.db.QueryRowContext(ctx,
		`SELECT `+approverColumns+` FROM approvers WHERE id = ?`, id).
		Scan(&out.ID, &out.Type, &out.DisplayName, &out.Identifier,
			&out.CreatedByID, &out.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &out, nil
}

func (r *ApproverRepo) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM approvers WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("approver %s not found", id)
	}
	return nil
}

// IsApprover matches an identifier (email, UPN, or group name) against the
// approver roster, case-insensitively.
func (r *ApproverRepo) IsApprover(ctx context.Context, identifier string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM approvers WHERE identifier = ? COLLATE NOCASE`, identifier).
		Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
