package keyserde

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
	"github.com/Aleph-Alpha/recordkey/v1/schema_registry"
)

// Supported names for Named.
const (
	FormatUTF8 = "utf8"
	FormatCBOR = "cbor"
	FormatWire = "wire"
)

var (
	// ErrUnsupportedValue is returned when a serializer cannot handle the
	// runtime type of a key value.
	ErrUnsupportedValue = errors.New("keyserde: unsupported key value")

	// ErrUnknownFormat is returned by Named for unknown format names.
	ErrUnknownFormat = errors.New("keyserde: unknown key format")
)

var (
	cborOnce sync.Once
	cborMode cbor.EncMode
	cborErr  error
)

// UTF8 encodes text-like values as UTF-8. Unlike the default encoding it
// accepts any fmt.Stringer and byte slices.
func UTF8() recordkey.Serializer {
	return func(value any) ([]byte, error) {
		switch v := value.(type) {
		case string:
			return []byte(v), nil
		case []byte:
			return v, nil
		case fmt.Stringer:
			return []byte(v.String()), nil
		default:
			return nil, fmt.Errorf("%w: %T is not text", ErrUnsupportedValue, value)
		}
	}
}

// CBOR encodes the key value with canonical CBOR (RFC 8949 core
// deterministic encoding), so equal values always produce equal keys.
func CBOR() recordkey.Serializer {
	return func(value any) ([]byte, error) {
		cborOnce.Do(func() {
			cborMode, cborErr = cbor.CanonicalEncOptions().EncMode()
		})
		if cborErr != nil {
			return nil, cborErr
		}
		b, err := cborMode.Marshal(normalize(value))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
		}
		return b, nil
	}
}

// asMapper is implemented by record instances.
type asMapper interface {
	AsMap() map[string]any
}

// normalize turns nested record instances into plain maps so CBOR sees
// their field values. Byte slices are left alone.
func normalize(value any) any {
	if m, ok := value.(asMapper); ok {
		out := m.AsMap()
		for k, item := range out {
			out[k] = normalize(item)
		}
		return out
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return value
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return value
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	default:
		return value
	}
}

// WireFormat prefixes the output of inner with the Confluent wire header for
// version. A nil inner encodes text values as UTF-8.
//
// WireFormat(42, nil) applied to "abc" yields 00 00 00 00 2a 61 62 63.
func WireFormat(version int, inner recordkey.Serializer) recordkey.Serializer {
	if inner == nil {
		inner = UTF8()
	}
	header := schema_registry.EncodeSchemaID(version)
	return func(value any) ([]byte, error) {
		payload, err := inner(value)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, len(header)+len(payload))
		out = append(out, header...)
		return append(out, payload...), nil
	}
}

// Registry resolves the latest schema ID registered for subject and returns
// a WireFormat serializer bound to it. The lookup happens once, here, not on
// every key derivation.
func Registry(ctx context.Context, reg schema_registry.Registry, subject string, inner recordkey.Serializer) (recordkey.Serializer, error) {
	meta, err := reg.GetLatestSchema(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve key schema for subject %s: %w", subject, err)
	}
	return WireFormat(meta.ID, inner), nil
}

// Named returns the serializer registered under format. version is only
// used by FormatWire.
func Named(format string, version int) (recordkey.Serializer, error) {
	switch format {
	case FormatUTF8:
		return UTF8(), nil
	case FormatCBOR:
		return CBOR(), nil
	case FormatWire:
		return WireFormat(version, nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
