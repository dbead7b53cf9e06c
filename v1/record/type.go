package record

import (
	"fmt"
	"slices"
	"sync"

	"github.com/linkedin/goavro/v2"

	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
)

// Field declares one field of a record type.
type Field struct {
	// Name must be unique within the record type.
	Name string

	// Type is the declared semantic type of the field.
	Type recordkey.FieldType

	// Items is the element type of Array fields and the value type of Map fields.
	Items recordkey.FieldType

	// Record is the nested type of Record fields, and of Array or Map
	// elements whose Items is recordkey.Record.
	Record *Type

	// Doc is an optional description carried into the Avro schema.
	Doc string
}

// Type is a named record type with an ordered set of unique fields.
// A Type is immutable once NewType returns.
type Type struct {
	name      string
	namespace string
	doc       string

	fields    []Field
	keyFields []recordkey.Field
	index     map[string]int

	key recordkey.Config

	codecOnce sync.Once
	codec     *goavro.Codec
	codecErr  error
}

// Option configures a Type at definition time.
type Option func(*Type)

// WithKey declares the field whose value becomes the record's key.
// The name is checked lazily, when a key is derived.
func WithKey(field string) Option {
	return func(t *Type) {
		t.key.Field = field
	}
}

// WithKeySerializer overrides the default key encoding.
func WithKeySerializer(s recordkey.Serializer) Option {
	return func(t *Type) {
		t.key.Serializer = s
	}
}

// WithNamespace sets the Avro namespace of the type.
func WithNamespace(namespace string) Option {
	return func(t *Type) {
		t.namespace = namespace
	}
}

// WithDoc sets the Avro doc string of the type.
func WithDoc(doc string) Option {
	return func(t *Type) {
		t.doc = doc
	}
}

// NewType defines a record type. The field index is built here, once, so
// key resolution never has to inspect values to learn a field's type.
//
// Example:
//
//	user, err := record.NewType("User",
//	    []record.Field{
//	        {Name: "_id", Type: recordkey.String},
//	        {Name: "age", Type: recordkey.Int},
//	    },
//	    record.WithKey("_id"),
//	)
func NewType(name string, fields []Field, opts ...Option) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty type name", ErrInvalidType)
	}

	t := &Type{
		name:      name,
		fields:    slices.Clone(fields),
		keyFields: make([]recordkey.Field, 0, len(fields)),
		index:     make(map[string]int, len(fields)),
	}

	for i, f := range t.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field %d of %s has no name", ErrInvalidType, i, name)
		}
		if _, ok := t.index[f.Name]; ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateField, name, f.Name)
		}
		if err := validateField(f); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %s", ErrInvalidType, name, f.Name, err)
		}

		t.index[f.Name] = i
		t.keyFields = append(t.keyFields, recordkey.Field{Name: f.Name, Type: f.Type})
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// MustType is like NewType but panics on error.
func MustType(name string, fields []Field, opts ...Option) *Type {
	t, err := NewType(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func validateField(f Field) error {
	switch f.Type {
	case recordkey.String, recordkey.Bytes, recordkey.Boolean,
		recordkey.Int, recordkey.Long, recordkey.Float, recordkey.Double:
		return nil
	case recordkey.Record:
		if f.Record == nil {
			return fmt.Errorf("record field without nested type")
		}
		return nil
	case recordkey.Array, recordkey.Map:
		switch f.Items {
		case recordkey.Invalid, recordkey.Array, recordkey.Map:
			return fmt.Errorf("unsupported %s item type %s", f.Type, f.Items)
		case recordkey.Record:
			if f.Record == nil {
				return fmt.Errorf("%s of records without nested type", f.Type)
			}
		}
		return nil
	default:
		return fmt.Errorf("invalid field type %d", f.Type)
	}
}

// Name returns the type's name.
func (t *Type) Name() string { return t.name }

// Namespace returns the type's Avro namespace, possibly empty.
func (t *Type) Namespace() string { return t.namespace }

// FullName returns the namespace-qualified name.
func (t *Type) FullName() string {
	if t.namespace == "" {
		return t.name
	}
	return t.namespace + "." + t.name
}

// Fields returns the declared fields in order.
func (t *Type) Fields() []Field {
	return slices.Clone(t.fields)
}

// Field looks a declared field up by name.
func (t *Type) Field(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// KeyConfig returns the type's key configuration, or nil if no key field
// was declared.
func (t *Type) KeyConfig() *recordkey.Config {
	if t.key.Field == "" && t.key.Serializer == nil {
		return nil
	}
	cfg := t.key
	return &cfg
}

// New creates an instance of the type from field values. Values for fields
// the type does not declare are rejected; declared fields may be omitted.
func (t *Type) New(values map[string]any) (*Instance, error) {
	copied := make(map[string]any, len(values))
	for name, v := range values {
		if _, ok := t.index[name]; !ok {
			return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, t.name, name)
		}
		copied[name] = v
	}

	return &Instance{typ: t, values: copied}, nil
}
