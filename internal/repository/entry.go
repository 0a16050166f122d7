package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"laci-tracker/internal/domain"
)

// EntryRepo persists responsibility entries. Every write path clears the
// owning application's approval inside the same transaction, so an approval
// can never describe a configuration other than the one it was given for.
type EntryRepo struct {
	db *sql.DB
}

func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

const entryColumns = `id, application_id, category_id, field_id, assigned_users,
	COALESCE(created_by_id, ''), COALESCE(modified_by_id, ''),
	created_at, updated_at`

func scanEntry(row interface{ Scan(...any) error }) (*domain.Entry, error) {
	var e domain.Entry
	var assigned string
	err := row.Scan(&e.ID, &e.ApplicationID, &e.CategoryID, &e.FieldID, &assigned,
		&e.CreatedByID, &e.ModifiedByID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.AssignedUsers, err = decodeStrings(assigned)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepo) get(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id string) (*domain.Entry, error) {
	row := q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return e, nil
}

func (r *EntryRepo) ListAll(ctx context.Context) ([]domain.Entry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM entries`)
}

func (r *EntryRepo) ListByApplication(ctx context.Context, applicationID string) ([]domain.Entry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM entries WHERE application_id = ?`, applicationID)
}

func (r *EntryRepo) list(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Upsert inserts the entry, or updates the assignee list in place when a
// row for the (application, category, field) triple already exists.
// Reports whether a new row was created.
func (r *EntryRepo) Upsert(ctx context.Context, e *domain.Entry) (*domain.Entry, bool, error) {
	assigned, err := encodeStrings(e.AssignedUsers)
	if err != nil {
		return nil, false, err
	}

	var id string
	var created bool
	err = inTx(r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM entries WHERE application_id = ? AND category_id = ? AND field_id = ?`,
			e.ApplicationID, e.CategoryID, e.FieldID).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id = uuid.NewString()
			created = true
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO entries (id, application_id, category_id, field_id, assigned_users,
				                      created_by_id, modified_by_id)
				 VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))`,
				id, e.ApplicationID, e.CategoryID, e.FieldID, assigned,
				e.CreatedByID, e.ModifiedByID); err != nil {
				return mapDBError(err)
			}
		case err != nil:
			return err
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE entries
				 SET assigned_users = ?, modified_by_id = NULLIF(?, ''),
				     updated_at = CURRENT_TIMESTAMP
				 WHERE id = ?`,
				assigned, e.ModifiedByID, id); err != nil {
				return mapDBError(err)
			}
		}
		return r.clearApproval(ctx, tx, e.ApplicationID)
	})
	if err != nil {
		return nil, false, err
	}

	out, err := r.get(ctx, r.db, id)
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

func (r *EntryRepo) Update(ctx context.Context, e *domain.Entry) error {
	assigned, err := encodeStrings(e.AssignedUsers)
	if err != nil {
		return err
	}
	return inTx(r.db, func(tx *sql.Tx) error {
		var applicationID string
		if err := tx.QueryRowContext(ctx,
			`SELECT application_id FROM entries WHERE id = ?`, e.ID).Scan(&applicationID); err != nil {
			return mapDBError(err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE entries
			 SET assigned_users = ?, modified_by_id = NULLIF(?, ''),
			     updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			assigned, e.ModifiedByID, e.ID); err != nil {
			return mapDBError(err)
		}
		return r.clearApproval(ctx, tx, applicationID)
	})
}

func (r *EntryRepo) Delete(ctx context.Context, id string) error {
	return inTx(r.db, func(tx *sql.Tx) error {
		var applicationID string
		if err := tx.QueryRowContext(ctx,
			`SELECT application_id FROM entries WHERE id = ?`, id).Scan(&applicationID); err != nil {
			return mapDBError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			return err
		}
		return r.clearApproval(ctx, tx, applicationID)
	})
}

func (r *EntryRepo) DeleteByApplication(ctx context.Context, applicationID string) error {
	return inTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM entries WHERE application_id = ?`, applicationID); err != nil {
			return err
		}
		return r.clearApproval(ctx, tx, applicationID)
	})
}

func (r *EntryRepo) clearApproval(ctx context.Context, tx *sql.Tx, applicationID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM approvals WHERE application_id = ?`, applicationID)
	return err
}
