package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnreachable wraps every transport failure: refused connections,
	// timeouts, DNS errors, an open circuit breaker.
	ErrUnreachable = errors.New("remote unreachable")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// RejectedError is a non-2xx answer from the server. The request reached the
// server, so retrying it unchanged is not expected to help.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("remote rejected request: status %d: %s", e.StatusCode, e.Body)
}

func unreachable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}

func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

func IsRejected(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected)
}

// IsNotFound reports a 404 from the server.
func IsNotFound(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected) && rejected.StatusCode == http.StatusNotFound
}
