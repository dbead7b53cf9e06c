package record

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/linkedin/goavro/v2"

	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
)

// AvroSchema renders the Avro record schema of the type as JSON.
// Nested record types are inlined on first use and referenced by full name
// afterwards.
func (t *Type) AvroSchema() (string, error) {
	b, err := json.Marshal(t.avroSchema(make(map[string]bool)))
	if err != nil {
		return "", fmt.Errorf("failed to render avro schema for %s: %w", t.name, err)
	}
	return string(b), nil
}

func (t *Type) avroSchema(seen map[string]bool) any {
	if seen[t.FullName()] {
		return t.FullName()
	}
	seen[t.FullName()] = true

	fields := make([]map[string]any, 0, len(t.fields))
	for _, f := range t.fields {
		entry := map[string]any{
			"name": f.Name,
			"type": fieldSchema(f, f.Type, seen),
		}
		if f.Doc != "" {
			entry["doc"] = f.Doc
		}
		fields = append(fields, entry)
	}

	schema := map[string]any{
		"type":   "record",
		"name":   t.name,
		"fields": fields,
	}
	if t.namespace != "" {
		schema["namespace"] = t.namespace
	}
	if t.doc != "" {
		schema["doc"] = t.doc
	}
	return schema
}

func fieldSchema(f Field, ft recordkey.FieldType, seen map[string]bool) any {
	switch ft {
	case recordkey.Array:
		return map[string]any{"type": "array", "items": fieldSchema(f, f.Items, seen)}
	case recordkey.Map:
		return map[string]any{"type": "map", "values": fieldSchema(f, f.Items, seen)}
	case recordkey.Record:
		return f.Record.avroSchema(seen)
	default:
		return ft.String()
	}
}

// Codec returns the goavro codec compiled from the type's schema.
// It is built on first use.
func (t *Type) Codec() (*goavro.Codec, error) {
	t.codecOnce.Do(func() {
		schema, err := t.AvroSchema()
		if err != nil {
			t.codecErr = err
			return
		}
		t.codec, t.codecErr = goavro.NewCodec(schema)
		if t.codecErr != nil {
			t.codecErr = fmt.Errorf("failed to compile avro schema for %s: %w", t.name, t.codecErr)
		}
	})
	return t.codec, t.codecErr
}

// MarshalAvro encodes the instance's field values in Avro binary form.
// This is the record's value, not its key.
func (i *Instance) MarshalAvro() ([]byte, error) {
	codec, err := i.typ.Codec()
	if err != nil {
		return nil, err
	}
	native, err := i.native()
	if err != nil {
		return nil, err
	}
	return codec.BinaryFromNative(nil, native)
}

// MarshalAvroJSON encodes the instance's field values in Avro JSON form.
func (i *Instance) MarshalAvroJSON() ([]byte, error) {
	codec, err := i.typ.Codec()
	if err != nil {
		return nil, err
	}
	native, err := i.native()
	if err != nil {
		return nil, err
	}
	return codec.TextualFromNative(nil, native)
}

// DecodeAvro decodes Avro binary data written with the type's schema.
// Nested records come back as *Instance; arrays and maps as []any and
// map[string]any.
func (t *Type) DecodeAvro(data []byte) (*Instance, error) {
	codec, err := t.Codec()
	if err != nil {
		return nil, err
	}
	native, _, err := codec.NativeFromBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", t.name, err)
	}
	m, ok := native.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to decode %s: unexpected native type %T", t.name, native)
	}
	return t.fromNative(m)
}

func (i *Instance) native() (map[string]any, error) {
	out := make(map[string]any, len(i.values))
	for _, f := range i.typ.fields {
		v, ok := i.values[f.Name]
		if !ok {
			continue
		}
		nv, err := toNative(f, f.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", i.typ.name, f.Name, err)
		}
		out[f.Name] = nv
	}
	return out, nil
}

func toNative(f Field, ft recordkey.FieldType, v any) (any, error) {
	switch ft {
	case recordkey.Record:
		switch rv := v.(type) {
		case *Instance:
			return rv.native()
		case map[string]any:
			return rv, nil
		}
		return nil, fmt.Errorf("cannot use %T as record %s", v, f.Record.Name())
	case recordkey.Array:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice {
			return nil, fmt.Errorf("cannot use %T as array", v)
		}
		out := make([]any, rv.Len())
		for n := range out {
			item, err := toNative(f, f.Items, rv.Index(n).Interface())
			if err != nil {
				return nil, err
			}
			out[n] = item
		}
		return out, nil
	case recordkey.Map:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot use %T as map", v)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := toNative(f, f.Items, iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = item
		}
		return out, nil
	default:
		return v, nil
	}
}

func (t *Type) fromNative(m map[string]any) (*Instance, error) {
	values := make(map[string]any, len(m))
	for name, v := range m {
		f, ok := t.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, t.name, name)
		}
		nv, err := fromNative(f, f.Type, v)
		if err != nil {
			return nil, err
		}
		values[name] = nv
	}
	return &Instance{typ: t, values: values}, nil
}

func fromNative(f Field, ft recordkey.FieldType, v any) (any, error) {
	switch ft {
	case recordkey.Record:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected native record %T", v)
		}
		return f.Record.fromNative(m)
	case recordkey.Array:
		items, ok := v.([]any)
		if !ok || f.Items != recordkey.Record {
			return v, nil
		}
		out := make([]any, len(items))
		for n, item := range items {
			nv, err := fromNative(f, f.Items, item)
			if err != nil {
				return nil, err
			}
			out[n] = nv
		}
		return out, nil
	case recordkey.Map:
		items, ok := v.(map[string]any)
		if !ok || f.Items != recordkey.Record {
			return v, nil
		}
		out := make(map[string]any, len(items))
		for k, item := range items {
			nv, err := fromNative(f, f.Items, item)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}
