package recordkey

// FieldType is the declared semantic type of a record field.
// The set is closed; the names follow Avro's primitive and complex types.
type FieldType uint8

const (
	// Invalid is the zero value and never a valid declaration.
	Invalid FieldType = iota
	// String is UTF-8 text.
	String
	// Bytes is a raw byte sequence.
	Bytes
	Boolean
	Int
	Long
	Float
	Double
	Array
	Map
	Record
)

var fieldTypeNames = map[FieldType]string{
	String:  "string",
	Bytes:   "bytes",
	Boolean: "boolean",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Array:   "array",
	Map:     "map",
	Record:  "record",
}

// String returns the Avro name of the type.
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "invalid"
}

// ParseFieldType maps an Avro type name back to a FieldType.
// It returns Invalid and false for unknown names.
func ParseFieldType(name string) (FieldType, bool) {
	for t, n := range fieldTypeNames {
		if n == name {
			return t, true
		}
	}
	return Invalid, false
}

// Field is a declared field as seen by the key engine: a name and its
// semantic type.
type Field struct {
	Name string
	Type FieldType
}

// Serializer turns a key field's value into key bytes.
//
// The engine calls it with exactly one argument. Additional parameters are
// captured in a closure when the configuration is built.
type Serializer func(value any) ([]byte, error)

// Config is the key configuration attached to a record type.
type Config struct {
	// Field names the field whose value becomes the key.
	// An empty Field means no key was declared.
	Field string

	// Serializer overrides the default encoding when non-nil.
	Serializer Serializer
}

// Source is the record model the engine reads from. Implementations must not
// be mutated by the engine and are only accessed through these methods.
type Source interface {
	// Fields returns the ordered declared fields of the record type.
	Fields() []Field

	// Value returns the current value of the named field.
	Value(name string) (any, bool)

	// KeyConfig returns the key configuration of the record type, or nil.
	KeyConfig() *Config
}
