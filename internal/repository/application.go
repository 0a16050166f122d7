package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"laci-tracker/internal/domain"
)

type ApplicationRepo struct {
	db *sql.DB
}

func NewApplicationRepo(db *sql.DB) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

const applicationColumns = `id, name, enabled, hit_count,
	COALESCE(created_by_id, ''), COALESCE(modified_by_id, ''),
	created_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }) (*domain.Application, error) {
	var a domain.Application
	var enabled int64
	err := row.Scan(&a.ID, &a.Name, &enabled, &a.HitCount,
		&a.CreatedByID, &a.ModifiedByID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Enabled = enabled != 0
	return &a, nil
}

func (r *ApplicationRepo) Get(ctx context.Context, id string) (*domain.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	a, err := scanApplication(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return a, nil
}

// GetByName matches case-insensitively; the name index collates NOCASE.
func (r *ApplicationRepo) GetByName(ctx context.Context, name string) (*domain.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE name = ? COLLATE NOCASE`, name)
	a, err := scanApplication(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return a, nil
}

func (r *ApplicationRepo) List(ctx context.Context) ([]domain.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

func (r *ApplicationRepo) Create(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, name, enabled, created_by_id, modified_by_id)
		 VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))`,
		id, app.Name, boolToInt(app.Enabled), app.CreatedByID, app.ModifiedByID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.Get(ctx, id)
}

func (r *ApplicationRepo) Update(ctx context.Context, app *domain.Application) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications
		 SET name = ?, enabled = ?, hit_count = ?,
		     modified_by_id = NULLIF(?, ''), updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		app.Name, boolToInt(app.Enabled), app.HitCount, app.ModifiedByID, app.ID)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("application %s not found", app.ID)
	}
	return nil
}

// Delete removes the application together with its entries and approval.
// The foreign keys cascade, but the deletes stay explicit so the intent
// survives a schema without them.
func (r *ApplicationRepo) Delete(ctx context.Context, id string) error {
	return inTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM approvals WHERE application_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE application_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound("application %s not found", id)
		}
		return nil
	})
}
