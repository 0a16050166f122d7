package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"laci-tracker/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, enabled, first_logon, last_logon`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	var enabled int64
	err := row.Scan(&u.ID, &u.Name, &u.Email, &enabled, &u.FirstLogon, &u.LastLogon)
	if err != nil {
		return nil, err
	}
	u.Enabled = enabled != 0
	return &u, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Create(ctx context.Context, name, email string) (*domain.User, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`, id, name, email)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.Get(ctx, id)
}

func (r *UserRepo) TouchLastLogon(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_logon = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("user %s not found", id)
	}
	return nil
}
