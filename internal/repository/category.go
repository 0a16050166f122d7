package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"laci-tracker/internal/domain"
)

type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, rank, description FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Rank, &c.Description)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, rank, description FROM categories ORDER BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Rank, &c.Description); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Create assigns the next rank inside the insert transaction so concurrent
// creates cannot collide on the unique rank column.
func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	id := uuid.NewString()
	err := inTx(r.db, func(tx *sql.Tx) error {
		var rank int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(rank), 0) + 1 FROM categories`).Scan(&rank); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, rank, description) VALUES (?, ?, ?, ?)`,
			id, c.Name, rank, c.Description)
		return mapDBError(err)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, rank = ?, description = ? WHERE id = ?`,
		c.Name, c.Rank, c.Description, c.ID)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("category %s not found", c.ID)
	}
	return nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("category %s not found", id)
	}
	return nil
}
