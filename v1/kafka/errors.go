package kafka

import (
	"errors"

	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
)

// Common producer errors
var (
	// ErrInvalidConfig is returned by NewProducer when Config fails validation.
	ErrInvalidConfig = errors.New("kafka: invalid config")

	// ErrKeyDerivation wraps every error returned while deriving a message key.
	// The underlying *recordkey.Error stays reachable through errors.Is/As.
	ErrKeyDerivation = errors.New("kafka: key derivation failed")

	// ErrValueSerialization wraps errors from the ValueSerializer.
	ErrValueSerialization = errors.New("kafka: value serialization failed")

	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("kafka: producer is closed")
)

// IsKeyError checks if the error was caused by key derivation.
func IsKeyError(err error) bool {
	return errors.Is(err, ErrKeyDerivation)
}

// IsConfigurationError checks if a publish failed because of the record
// type's key configuration rather than the broker.
func IsConfigurationError(err error) bool {
	return recordkey.IsUnconfigured(err) || recordkey.IsMissingField(err)
}
