package rabbit

import (
	"errors"
	"fmt"
	"net"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Common publisher errors
var (
	// ErrInvalidConfig is returned by NewPublisher when Config fails validation.
	ErrInvalidConfig = errors.New("rabbit: invalid config")

	// ErrConnectionFailed is returned when the broker cannot be reached.
	ErrConnectionFailed = errors.New("rabbit: connection failed")

	// ErrKeyDerivation wraps every error returned while deriving a message key.
	// The underlying *recordkey.Error stays reachable through errors.Is/As.
	ErrKeyDerivation = errors.New("rabbit: key derivation failed")

	// ErrRoutingKeyTooLong is returned when the hex-encoded key exceeds the
	// 255 bytes AMQP allows for a routing key.
	ErrRoutingKeyTooLong = errors.New("rabbit: routing key too long")

	// ErrValueSerialization wraps errors from the ValueSerializer.
	ErrValueSerialization = errors.New("rabbit: value serialization failed")

	// ErrNotAcknowledged is returned when the broker nacks a publish.
	ErrNotAcknowledged = errors.New("rabbit: publish not acknowledged")

	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("rabbit: publisher is closed")
)

// IsKeyError checks if the error was caused by key derivation.
func IsKeyError(err error) bool {
	return errors.Is(err, ErrKeyDerivation) || errors.Is(err, ErrRoutingKeyTooLong)
}

// IsRetryableError reports whether a publish may succeed if tried again:
// connection problems, recoverable AMQP errors and broker nacks. Key and
// serialization errors never are.
func IsRetryableError(err error) bool {
	if err == nil || IsKeyError(err) || errors.Is(err, ErrValueSerialization) {
		return false
	}
	if errors.Is(err, ErrConnectionFailed) || errors.Is(err, ErrNotAcknowledged) || errors.Is(err, amqp.ErrClosed) {
		return true
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Recover
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func connectionError(err error) error {
	return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
}
