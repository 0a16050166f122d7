package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"laci-tracker/internal/domain"
)

type FieldRepo struct {
	db *sql.DB
}

func NewFieldRepo(db *sql.DB) *FieldRepo {
	return &FieldRepo{db: db}
}

func (r *FieldRepo) Get(ctx context.Context, id string) (*domain.Field, error) {
	var f domain.Field
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, rank, description FROM fields WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.Rank, &f.Description)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &f, nil
}

func (r *FieldRepo) List(ctx context.Context) ([]domain.Field, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, rank, description FROM fields ORDER BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := []domain.Field{}
	for rows.Next() {
		var f domain.Field
		if err := rows.Scan(&f.ID, &f.Name, &f.Rank, &f.Description); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (r *FieldRepo) Create(ctx context.Context, f *domain.Field) (*domain.Field, error) {
	id := uuid.NewString()
	err := inTx(r.db, func(tx *sql.Tx) error {
		var rank int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(rank), 0) + 1 FROM fields`).Scan(&rank); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO fields (id, name, rank, description) VALUES (?, ?, ?, ?)`,
			id, f.Name, rank, f.Description)
		return mapDBError(err)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *FieldRepo) Update(ctx context.Context, f *domain.Field) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE fields SET name = ?, rank = ?, description = ? WHERE id = ?`,
		f.Name, f.Rank, f.Description, f.ID)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("field %s not found", f.ID)
	}
	return nil
}

func (r *FieldRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fields WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("field %s not found", id)
	}
	return nil
}
