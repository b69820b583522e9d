// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/tallybook/tallybook/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrAmountExceedsOutstanding):
		Problem(w, http.StatusUnprocessableEntity, "Amount Exceeds Outstanding", err.Error())
	case errors.Is(err, shared.ErrInvalidAmount):
		Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
	case errors.Is(err, shared.ErrInvalidDateRange):
		Problem(w, http.StatusBadRequest, "Invalid Date Range", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrLockNotAcquired):
		Problem(w, http.StatusConflict, "Busy", "the invoice is being updated, try again")
	case errors.Is(err, shared.ErrTransport):
		Problem(w, http.StatusBadGateway, "Upstream Error", shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
