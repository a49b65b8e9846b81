package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrNotConfigured = fmt.Errorf("backend setup is incomplete")
	ErrSessionLocked = fmt.Errorf("another watch session holds the lock")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrJobNotFound        = fmt.Errorf("job not found")
	ErrHistoryNotFound    = fmt.Errorf("history entry not found")

	// Command errors
	ErrNotConfirmed = fmt.Errorf("action not confirmed")
	ErrBusy         = fmt.Errorf("a load is already in progress")
	ErrQueryActive  = fmt.Errorf("a search query is active")
	ErrNoMorePages  = fmt.Errorf("no more pages")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// GenericFailure is shown when a command fails without a backend-provided reason.
const GenericFailure = "Could not reach the backend. Check the connection and try again."

// DetailedError is implemented by errors that carry a user-facing reason from the backend.
type DetailedError interface {
	error
	UserDetail() string
}

// DisplayError converts a command failure into banner text.
//
// A backend-provided detail is shown verbatim; anything else collapses to [GenericFailure].
func DisplayError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotConfirmed) {
		return ""
	}
	var de DetailedError
	if errors.As(err, &de) && de.UserDetail() != "" {
		return de.UserDetail()
	}
	return GenericFailure
}
