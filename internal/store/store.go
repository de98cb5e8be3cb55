// Package store persists users, pets, quests and sessions in SQLite.
package store

import (
	"database/sql"
	"errors"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every store can run
// inside a request transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// ErrConflict is returned when a unique constraint rejects a write.
var ErrConflict = errors.New("unique constraint violated")

type scanner interface{ Scan(...any) error }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
