// Package repository implements the domain repository interfaces using
// SQLite. Queries are written inline; writes go through the single-conn
// write pool, reads through the read pool.
package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"laci-tracker/internal/domain"
)

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}

// encodeStrings serializes a string slice for a JSON TEXT column. nil
// encodes as the empty array so reads never see SQL NULL.
func encodeStrings(vals []string) (string, error) {
	if vals == nil {
		vals = []string{}
	}
	raw, err := json.Marshal(vals)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var vals []string
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return nil, err
	}
	return vals, nil
}

// inTx runs fn inside a transaction on the write pool, committing on nil
// and rolling back otherwise.
func inTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
