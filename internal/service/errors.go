package service

import (
	"errors"

	"shareit/internal/domain"
)

// errorKind labels an error for the operation error counter.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnsupportedState):
		return "unsupported_state"
	case errors.Is(err, domain.ErrInvalidPage):
		return "invalid_page"
	default:
		return "internal"
	}
}
