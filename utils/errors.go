package utils

import (
	"errors"
	"net/http"

	"github.com/iredox10/kano-market-price/internal/core/domain"
)

// StatusFor maps a service error onto the HTTP status returned to the caller.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindInvalidPayload:
		return http.StatusBadRequest
	case domain.KindApplicationNotFound:
		return http.StatusNotFound
	case domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindInternal:
		if errors.Is(err, domain.ErrUnavailable) {
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}
