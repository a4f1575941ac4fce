package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes this package reacts to.
const (
	SQLStateInvalidCatalogName = "3D000" // database does not exist
	SQLStateUndefinedTable     = "42P01"
	SQLStateUniqueViolation    = "23505"
)

// Code returns the SQLSTATE carried by err, or "" when err is not a server error.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUnknownDatabase reports whether err says the target database is missing.
func IsUnknownDatabase(err error) bool {
	return Code(err) == SQLStateInvalidCatalogName
}

// IsUndefinedTable reports whether err says a referenced table is missing.
func IsUndefinedTable(err error) bool {
	return Code(err) == SQLStateUndefinedTable
}

// IsUniqueViolation reports whether err is a primary key or unique constraint violation.
func IsUniqueViolation(err error) bool {
	return Code(err) == SQLStateUniqueViolation
}
