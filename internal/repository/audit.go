package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"laci-tracker/internal/domain"
)

// AuditRepo appends and reads the immutable audit trail. There is no update
// or delete path on purpose.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Insert(ctx context.Context, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	payload, err := json.Marshal(log.Changes)
	if err != nil {
		return fmt.Errorf("encode audit changes: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit (id, actor, action, target, target_id, changes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID, log.Actor, string(log.Action), string(log.Target),
		log.TargetID, string(payload))
	return mapDBError(err)
}

// List returns records newest-first, narrowed by the filter's window and
// kind predicates.
func (r *AuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLog, error) {
	q := sq.Select("id", "actor", "action", "target", "COALESCE(target_id, '')", "changes", "timestamp").
		From("audit").
		OrderBy("timestamp DESC")

	if filter.Days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -filter.Days)
		q = q.Where(sq.GtOrEq{"timestamp": cutoff})
	}
	if !filter.Before.IsZero() {
		q = q.Where(sq.Lt{"timestamp": filter.Before.UTC()})
	}
	if filter.Action != nil {
		q = q.Where(sq.Eq{"action": string(*filter.Action)})
	}
	if filter.Target != nil {
		q = q.Where(sq.Eq{"target": string(*filter.Target)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []domain.AuditLog{}
	for rows.Next() {
		var l domain.AuditLog
		var changes sql.NullString
		if err := rows.Scan(&l.ID, &l.Actor, &l.Action, &l.Target,
			&l.TargetID, &changes, &l.Timestamp); err != nil {
			return nil, err
		}
		if changes.Valid && changes.String != "" {
			if err := json.Unmarshal([]byte(changes.String), &l.Changes); err != nil {
				return nil, fmt.Errorf("decode audit changes for %s: %w", l.ID, err)
			}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
