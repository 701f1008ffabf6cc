package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// MapError translates database errors to domain errors.
// sql.ErrNoRows becomes notFoundErr and a unique violation becomes
// duplicateErr. Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	if IsPgCode(err, pgUniqueViolation) {
		return duplicateErr
	}

	return err
}

// IsCheckViolation reports whether err is a PostgreSQL check constraint failure.
func IsCheckViolation(err error) bool {
	return IsPgCode(err, pgCheckViolation)
}

// IsPgCode reports whether err wraps a PostgreSQL error with the given SQLSTATE code.
func IsPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
