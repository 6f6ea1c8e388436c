package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Domain-level rejections surfaced to callers instead of raw SQL errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrPhoneTaken        = errors.New("phone number already registered")
	ErrAlreadySubscribed = errors.New("already subscribed to this project")
)

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505). Concurrent inserts race on the constraint
// rather than on application-level locks.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
