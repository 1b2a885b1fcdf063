package repo

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no row matches the id and owner.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate")
)

// uniqueViolation is the postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}
