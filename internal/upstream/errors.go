package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is an HTTP 401 from an upstream call. The caller decides
	// whether this means "session expired" or "never logged in".
	ErrUnauthorized = errors.New("upstream rejected credentials")

	// ErrNotFound is an HTTP 404.
	ErrNotFound = errors.New("upstream resource not found")

	// ErrUnavailable covers transport failures, timeouts, 5xx responses and an
	// open circuit breaker. Listings degrade to an empty result on it.
	ErrUnavailable = errors.New("upstream unavailable")
)

// StatusError carries an upstream HTTP status that maps to none of the
// sentinel errors above (4xx other than 401/404).
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Status)
}
