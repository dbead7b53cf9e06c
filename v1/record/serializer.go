package record

import "github.com/Aleph-Alpha/recordkey/v1/schema_registry"

// ValueSerializer encodes the value portion of a message. Keys never come
// from a ValueSerializer; they come from the record type's key
// configuration.
type ValueSerializer interface {
	Serialize(rec *Instance) ([]byte, error)
}

// ValueSerializerFunc adapts a function to ValueSerializer.
type ValueSerializerFunc func(rec *Instance) ([]byte, error)

// Serialize calls f(rec).
func (f ValueSerializerFunc) Serialize(rec *Instance) ([]byte, error) {
	return f(rec)
}

// AvroSerializer encodes values as Avro binary using the record type's
// schema. A non-zero SchemaID prepends the Confluent wire header.
type AvroSerializer struct {
	SchemaID int
}

// Serialize implements ValueSerializer.
func (s AvroSerializer) Serialize(rec *Instance) ([]byte, error) {
	payload, err := rec.MarshalAvro()
	if err != nil {
		return nil, err
	}
	if s.SchemaID == 0 {
		return payload, nil
	}
	return append(schema_registry.EncodeSchemaID(s.SchemaID), payload...), nil
}
