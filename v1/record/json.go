package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
)

// MarshalJSON encodes the instance's field values as a JSON object. Bytes
// fields are base64 strings and nested records are objects.
func (i *Instance) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.values)
}

// NewFromJSON creates an instance from a JSON object, converting each value
// to the Go type its declared field type uses: int32 for int, int64 for long,
// []byte for base64-encoded bytes, typed slices for scalar arrays and
// *Instance for nested records. Omitted fields stay unset.
func (t *Type) NewFromJSON(data []byte) (*Instance, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", t.name, err)
	}
	return t.fromJSON(raw)
}

func (t *Type) fromJSON(raw map[string]any) (*Instance, error) {
	values := make(map[string]any, len(raw))
	for name, v := range raw {
		f, ok := t.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, t.name, name)
		}
		cv, err := jsonValue(f, f.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.name, name, err)
		}
		values[name] = cv
	}
	return &Instance{typ: t, values: values}, nil
}

func jsonValue(f Field, ft recordkey.FieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch ft {
	case recordkey.String:
		return as[string](v)
	case recordkey.Bytes:
		s, err := as[string](v)
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(s)
	case recordkey.Boolean:
		return as[bool](v)
	case recordkey.Int:
		n, err := jsonInt(v)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%d overflows int", n)
		}
		return int32(n), nil
	case recordkey.Long:
		return jsonInt(v)
	case recordkey.Float:
		x, err := jsonFloat(v)
		return float32(x), err
	case recordkey.Double:
		return jsonFloat(v)
	case recordkey.Record:
		m, err := as[map[string]any](v)
		if err != nil {
			return nil, err
		}
		return f.Record.fromJSON(m)
	case recordkey.Array:
		items, err := as[[]any](v)
		if err != nil {
			return nil, err
		}
		return jsonArray(f, items)
	case recordkey.Map:
		m, err := as[map[string]any](v)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(m))
		for k, item := range m {
			cv, err := jsonValue(f, f.Items, item)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			out[k] = cv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, ft)
	}
}

// jsonArray builds the same slice types Fake does.
func jsonArray(f Field, items []any) (any, error) {
	switch f.Items {
	case recordkey.String:
		return convertAll[string](f, items)
	case recordkey.Bytes:
		return convertAll[[]byte](f, items)
	case recordkey.Boolean:
		return convertAll[bool](f, items)
	case recordkey.Int:
		return convertAll[int32](f, items)
	case recordkey.Long:
		return convertAll[int64](f, items)
	case recordkey.Float:
		return convertAll[float32](f, items)
	case recordkey.Double:
		return convertAll[float64](f, items)
	case recordkey.Record:
		return convertAll[*Instance](f, items)
	default:
		return nil, fmt.Errorf("%w: array of %s", ErrInvalidType, f.Items)
	}
}

func convertAll[T any](f Field, items []any) ([]T, error) {
	out := make([]T, len(items))
	for n, item := range items {
		cv, err := jsonValue(f, f.Items, item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", n, err)
		}
		typed, ok := cv.(T)
		if !ok {
			return nil, fmt.Errorf("[%d]: unexpected %T", n, cv)
		}
		out[n] = typed
	}
	return out, nil
}

func as[T any](v any) (T, error) {
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cannot use %T as %T", v, zero)
	}
	return typed, nil
}

func jsonInt(v any) (int64, error) {
	n, err := as[json.Number](v)
	if err != nil {
		return 0, err
	}
	return n.Int64()
}

func jsonFloat(v any) (float64, error) {
	n, err := as[json.Number](v)
	if err != nil {
		return 0, err
	}
	return n.Float64()
}
