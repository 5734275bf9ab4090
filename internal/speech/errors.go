package speech

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ServiceError is returned for any failed remote call: a transport failure
// (StatusCode 0) or a non-success response.
type ServiceError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s: service returned status %d: %s", e.Operation, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s: service returned status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call ran out of time
func (e *ServiceError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Kind is a short label for metrics: "timeout", "transport" or "status"
func (e *ServiceError) Kind() string {
	switch {
	case e.StatusCode != 0:
		return "status"
	case e.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}

// IsServiceError reports whether err wraps a *ServiceError
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}
