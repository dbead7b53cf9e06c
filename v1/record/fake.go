package record

import (
	"fmt"
	"math/rand/v2"

	"github.com/segmentio/ksuid"

	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
)

const maxFakeItems = 3

// Fake builds a synthetic instance of t with a value for every declared
// field. Text values are KSUIDs, so fake keys are unique and sortable.
func Fake(t *Type) (*Instance, error) {
	values := make(map[string]any, len(t.fields))
	for _, f := range t.fields {
		v, err := fakeValue(f, f.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to fake %s.%s: %w", t.name, f.Name, err)
		}
		values[f.Name] = v
	}

	return &Instance{typ: t, values: values}, nil
}

// MustFake is like Fake but panics on error.
func MustFake(t *Type) *Instance {
	inst, err := Fake(t)
	if err != nil {
		panic(err)
	}
	return inst
}

func fakeValue(f Field, ft recordkey.FieldType) (any, error) {
	switch ft {
	case recordkey.String:
		return ksuid.New().String(), nil
	case recordkey.Bytes:
		return ksuid.New().Bytes(), nil
	case recordkey.Boolean:
		return rand.IntN(2) == 1, nil
	case recordkey.Int:
		return rand.Int32N(1 << 16), nil
	case recordkey.Long:
		return rand.Int64N(1 << 32), nil
	case recordkey.Float:
		return rand.Float32(), nil
	case recordkey.Double:
		return rand.Float64(), nil
	case recordkey.Record:
		return Fake(f.Record)
	case recordkey.Array:
		return fakeArray(f)
	case recordkey.Map:
		m := make(map[string]any)
		for range 1 + rand.IntN(maxFakeItems) {
			v, err := fakeValue(f, f.Items)
			if err != nil {
				return nil, err
			}
			m[ksuid.New().String()] = v
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: cannot fake type %s", ErrInvalidType, ft)
	}
}

// fakeArray returns typed slices for scalar items so that the runtime type
// of a fake collection matches what application code would hold.
func fakeArray(f Field) (any, error) {
	n := 1 + rand.IntN(maxFakeItems)
	switch f.Items {
	case recordkey.String:
		return fill(n, func() string { return ksuid.New().String() }), nil
	case recordkey.Bytes:
		return fill(n, func() []byte { return ksuid.New().Bytes() }), nil
	case recordkey.Boolean:
		return fill(n, func() bool { return rand.IntN(2) == 1 }), nil
	case recordkey.Int:
		return fill(n, func() int32 { return rand.Int32N(1 << 16) }), nil
	case recordkey.Long:
		return fill(n, func() int64 { return rand.Int64N(1 << 32) }), nil
	case recordkey.Float:
		return fill(n, rand.Float32), nil
	case recordkey.Double:
		return fill(n, rand.Float64), nil
	case recordkey.Record:
		out := make([]*Instance, 0, n)
		for range n {
			inst, err := Fake(f.Record)
			if err != nil {
				return nil, err
			}
			out = append(out, inst)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: cannot fake array of %s", ErrInvalidType, f.Items)
	}
}

func fill[T any](n int, gen func() T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = gen()
	}
	return out
}
