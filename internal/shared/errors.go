package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount indicates a negative or non-finite monetary input.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountExceedsOutstanding indicates a payment or write-off larger than the remaining balance.
	ErrAmountExceedsOutstanding = errors.New("amount exceeds outstanding balance")
	// ErrInvalidDateRange occurs when a start date falls after its end date.
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrTransport indicates the underlying fetch failed.
	ErrTransport = errors.New("transport error")
	// ErrUnauthorized indicates an expired or missing credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates a malformed request payload.
	ErrValidation = errors.New("validation failed")
)

// TransportError carries the upstream status and message of a failed remote call.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("transport: status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("transport: status %d", e.StatusCode)
	case e.Err != nil:
		return "transport: " + e.Err.Error()
	default:
		return "transport: request failed"
	}
}

// Unwrap exposes both the sentinel and the cause to errors.Is.
func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransport, e.Err}
	}
	return []error{ErrTransport}
}

// UserSafeMessage returns a message suitable for surfacing to end users.
func UserSafeMessage(err error) string {
	var terr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &terr):
		if terr.Message != "" {
			return terr.Message
		}
		return "The server could not be reached. Please try again."
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrAmountExceedsOutstanding),
		errors.Is(err, ErrInvalidDateRange),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return "Something went wrong."
	}
}

// IsClientError reports whether err stems from the caller's input rather
// than a server fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAmountExceedsOutstanding) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnauthorized)
}
