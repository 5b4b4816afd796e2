package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique-constraint failure. When
// constraintName is set, only that constraint matches.
func IsUniqueViolation(err error, constraintName string) bool {
	return matchesState(err, sqlStateUniqueViolation, constraintName, "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a referential-integrity failure.
func IsForeignKeyViolation(err error, constraintName string) bool {
	return matchesState(err, sqlStateForeignKeyViolation, constraintName, "FOREIGN KEY constraint failed")
}

func matchesState(err error, state, constraintName, sqliteMarker string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == state && (constraintName == "" || pgErr.ConstraintName == constraintName)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == state && (constraintName == "" || pqErr.Constraint == constraintName)
	}

	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	return strings.Contains(msg, sqliteMarker) || strings.Contains(msg, "SQLSTATE "+state)
}
