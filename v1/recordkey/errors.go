package recordkey

import (
	"errors"
	"fmt"
)

// Sentinels matched by *Error through errors.Is.
var (
	// ErrKeyNotSpecified is matched when the record type declares no key field.
	ErrKeyNotSpecified = errors.New("recordkey: key not specified")

	// ErrNoSuchField is matched when the declared key field does not exist.
	ErrNoSuchField = errors.New("recordkey: no such field")

	// ErrUnencodableKey is matched when the key value has no default encoding
	// and no custom serializer was configured.
	ErrUnencodableKey = errors.New("recordkey: unencodable key")
)

// ErrorKind tags the variant of an *Error.
type ErrorKind uint8

const (
	// Unconfigured means no key field was ever declared for the record type.
	Unconfigured ErrorKind = iota + 1
	// MissingField means the declared key field is not a field of the record type.
	MissingField
	// UnencodableType means the key field's value cannot be encoded by default.
	UnencodableType
)

func (k ErrorKind) String() string {
	switch k {
	case Unconfigured:
		return "unconfigured"
	case MissingField:
		return "missing_field"
	case UnencodableType:
		return "unencodable_type"
	default:
		return "unknown"
	}
}

// Error is returned by Resolve, Encode and Derive. It carries everything
// needed to reproduce its message.
type Error struct {
	Kind ErrorKind

	// Field is the configured key field name (MissingField, UnencodableType).
	Field string

	// RuntimeType is the Go type of the offending value (UnencodableType).
	RuntimeType string
}

// Error implements the error interface.
// The messages are stable and relied upon by key consumers.
func (e *Error) Error() string {
	switch e.Kind {
	case Unconfigured:
		return "`key` attribute is not specified! You can declare it via a Meta class attribute"
	case MissingField:
		return fmt.Sprintf("There is no field with name %s!", e.Field)
	case UnencodableType:
		return fmt.Sprintf("I don't know how to encode the key for %s of type %s!", e.Field, e.RuntimeType)
	default:
		return "recordkey: unknown error"
	}
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrKeyNotSpecified:
		return e.Kind == Unconfigured
	case ErrNoSuchField:
		return e.Kind == MissingField
	case ErrUnencodableKey:
		return e.Kind == UnencodableType
	}
	return false
}

// IsUnconfigured checks if the error is an unconfigured-key error.
func IsUnconfigured(err error) bool {
	return errors.Is(err, ErrKeyNotSpecified)
}

// IsMissingField checks if the error is a missing-field error.
func IsMissingField(err error) bool {
	return errors.Is(err, ErrNoSuchField)
}

// IsUnencodable checks if the error is an unencodable-type error.
func IsUnencodable(err error) bool {
	return errors.Is(err, ErrUnencodableKey)
}

// KindOf returns the kind of the *Error in err's chain, or 0 if there is none.
func KindOf(err error) ErrorKind {
	var keyErr *Error
	if errors.As(err, &keyErr) {
		return keyErr.Kind
	}
	return 0
}

func unencodable(field string, value any) *Error {
	return &Error{
		Kind:        UnencodableType,
		Field:       field,
		RuntimeType: fmt.Sprintf("%T", value),
	}
}
