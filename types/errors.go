package types

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Domain errors recovered at the controller boundary. Not-found is reported
// for rows owned by other organizations as well, so cross-tenant existence is
// never leaked as a forbidden response.
var (
	ErrValidation           = errors.New("invalid input")
	ErrNotFound             = errors.New("resource not found")
	ErrDuplicateRecord      = errors.New("an emission record already exists for this source, factory, and period")
	ErrDuplicateFactoryCode = errors.New("a factory with this code already exists")
	ErrEmailTaken           = errors.New("a user with this email already exists")
	ErrInUse                = errors.New("cannot delete: dependent records exist")
	ErrLimitReached         = errors.New("subscription limit reached, please upgrade your plan")
	ErrNoActiveSubscription = errors.New("no active subscription for this organization")
)

// HTTPStatus maps domain errors to response status codes. Anything unmapped is
// an unexpected failure and surfaces as a 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrDuplicateRecord),
		errors.Is(err, ErrDuplicateFactoryCode),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrInUse):
		return fiber.StatusConflict
	case errors.Is(err, ErrLimitReached),
		errors.Is(err, ErrNoActiveSubscription):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// IsDomainError reports whether err carries a user-facing message.
func IsDomainError(err error) bool {
	return HTTPStatus(err) != fiber.StatusInternalServerError
}
