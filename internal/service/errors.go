package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/oaib/exam-backend/internal/database"
)

// Domain errors. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	// ErrDependencyExists reports a delete blocked by a referencing row.
	ErrDependencyExists = fmt.Errorf("%w: still referenced", ErrConflict)
)

// ValidationError is a domain-level validation failure on one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// storeErr translates a repository error for operation op.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case database.IsForeignKeyViolation(err), database.IsCheckViolation(err):
		return fmt.Errorf("%s: %w: %v", op, ErrValidation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
