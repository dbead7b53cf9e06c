package schema_registry

import (
	"errors"
	"fmt"
	"net/http"
)

// Common schema registry errors
var (
	// ErrInvalidConfig is returned when the client configuration is unusable.
	ErrInvalidConfig = errors.New("schema registry: invalid config")

	// ErrRequestFailed is returned when the registry could not be reached.
	ErrRequestFailed = errors.New("schema registry: request failed")

	// ErrNotFound is matched by a StatusError with status 404.
	ErrNotFound = errors.New("schema registry: not found")

	// ErrInvalidWireFormat is returned when framed data has no valid header.
	ErrInvalidWireFormat = errors.New("schema registry: invalid wire format")
)

// StatusError is returned when the registry answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("schema registry returned status %d: %s", e.StatusCode, e.Body)
}

// Is makes a 404 StatusError match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFoundError checks if the subject, version or schema does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
