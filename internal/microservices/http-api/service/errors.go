package service

import (
	"errors"
	"fmt"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
)

// Error taxonomy shared by all services. Handlers map these to HTTP status
// codes; detailed errors wrap them with %w.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// storageError maps repository and model errors onto the taxonomy. what
// names the entity for the message.
func storageError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrDuplicate):
		return validationf("%s already exists", what)
	case errors.Is(err, models.ErrReservedUsername),
		errors.Is(err, models.ErrInvalidRole),
		errors.Is(err, models.ErrFutureYear):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return err
}

// permissionError lifts a permission rule result into the taxonomy.
func permissionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, permission.ErrUnauthenticated):
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case errors.Is(err, permission.ErrDenied):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	return err
}
