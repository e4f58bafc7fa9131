package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the migration reports on specifically.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeUndefinedTable      = "42P01"
)

// IsUniqueViolation reports whether err carries a Postgres unique_violation.
// On this load it almost always means the destination was already populated.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err carries a Postgres foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// IsUndefinedTable reports whether err carries a Postgres undefined_table error.
func IsUndefinedTable(err error) bool {
	return hasCode(err, codeUndefinedTable)
}

// Hint returns a short operator-facing explanation for well-known failures,
// or "" when nothing specific applies.
func Hint(err error) string {
	switch {
	case IsUniqueViolation(err):
		return "destination already holds this row; runs are not idempotent, load into an empty lab5 schema"
	case IsForeignKeyViolation(err):
		return "referenced patient row is missing from lab5.patient"
	case IsUndefinedTable(err):
		return "destination table is missing; create it or rerun with --create-tables"
	}
	return ""
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
