package database

import (
	stderrors "errors"

	"github.com/lib/pq"

	"github.com/clinicstock/backend/pkg/errors"
)

// PQError unwraps err to a *pq.Error, if it is one.
func PQError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// IsUniqueViolation reports whether err violates the named unique constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	pqErr, ok := PQError(err)
	return ok && pqErr.Code == "23505" && (constraint == "" || pqErr.Constraint == constraint)
}

// IsForeignKeyViolation reports whether err violates the named foreign key.
// An empty constraint matches any foreign key violation.
func IsForeignKeyViolation(err error, constraint string) bool {
	pqErr, ok := PQError(err)
	return ok && pqErr.Code == "23503" && (constraint == "" || pqErr.Constraint == constraint)
}

// MapPQError converts a PostgreSQL error to a generic AppError.
// Returns nil if the error is not a pq.Error or has no generic mapping.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := PQError(err)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	case "23514":
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)

	case "23505":
		return errors.Conflict("a record with these values already exists")

	case "23503":
		return errors.BadRequest("referenced record does not exist")

	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}
