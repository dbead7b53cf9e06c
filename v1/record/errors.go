package record

import "errors"

// Common record model errors.
var (
	// ErrInvalidType is returned when a record type definition is malformed.
	ErrInvalidType = errors.New("record: invalid type")

	// ErrDuplicateField is returned when a record type declares a field twice.
	ErrDuplicateField = errors.New("record: duplicate field")

	// ErrUnknownField is returned when an instance is given a value for a
	// field its type does not declare.
	ErrUnknownField = errors.New("record: unknown field")

	// ErrUnknownType is returned when a definition references a record type
	// that has not been defined.
	ErrUnknownType = errors.New("record: unknown type")
)

// IsInvalidType checks if the error is a malformed type definition error.
func IsInvalidType(err error) bool {
	return errors.Is(err, ErrInvalidType)
}

// IsUnknownField checks if the error is an unknown field error.
func IsUnknownField(err error) bool {
	return errors.Is(err, ErrUnknownField)
}
