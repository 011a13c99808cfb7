package places

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by every call when the client has no credential.
var ErrMissingAPIKey = errors.New("places provider API key is not configured")

// StatusError is a provider response whose status is not OK. It is the
// failure arm of every provider call; callers inspect it with errors.As.
type StatusError struct {
	Service    string // "geocode", "details" or "directions"
	Status     string // provider status, or HTTP_<code> for transport-level failures
	Message    string
	HTTPStatus int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s provider status %s: %s", e.Service, e.Status, e.Message)
	}
	return fmt.Sprintf("%s provider status %s", e.Service, e.Status)
}

// IsStatus reports whether err is a StatusError carrying status.
func IsStatus(err error, status string) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
