package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the data layer classifies.
const (
	SQLStateUniqueViolation     = "23505"
	SQLStateForeignKeyViolation = "23503"
	SQLStateNotNullViolation    = "23502"
	SQLStateCheckViolation      = "23514"
	SQLStateInvalidText         = "22P02"
	SQLStateInsufficientPriv    = "42501"
)

// SQLState extracts the SQLSTATE from pgx or lib/pq errors, or "" when err carries none.
func SQLState(err error) string {
	if err == nil {
		return ""
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique violation. When constraintName
// is provided the constraint must match as well. SQLite messages are recognised too.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if SQLState(err) == SQLStateUniqueViolation ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") {
		return constraintName == "" || strings.Contains(msg, constraintName) || constraintOf(err) == constraintName
	}
	return false
}

// IsInvalidInput reports constraint and type errors caused by caller-supplied values.
func IsInvalidInput(err error) bool {
	switch SQLState(err) {
	case SQLStateForeignKeyViolation, SQLStateNotNullViolation, SQLStateCheckViolation, SQLStateInvalidText:
		return true
	}
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "NOT NULL constraint failed") ||
		strings.Contains(msg, "CHECK constraint failed")
}

// IsPermissionDenied reports a backend authorization rejection.
func IsPermissionDenied(err error) bool {
	return SQLState(err) == SQLStateInsufficientPriv
}

func constraintOf(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
