package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/recordkey/v1/keyserde"
	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Definitions is the YAML document read by LoadDefinitions.
//
//	types:
//	  - name: Address
//	    fields:
//	      - {name: city, type: string}
//	  - name: User
//	    namespace: com.example
//	    key: _id
//	    key_format: wire
//	    key_version: 42
//	    fields:
//	      - {name: _id, type: string}
//	      - {name: tags, type: array, items: string}
//	      - {name: home, type: record, record: Address}
//
// Types may only reference types defined before them.
type Definitions struct {
	Types []TypeDefinition `yaml:"types" validate:"required,min=1,dive"`
}

// TypeDefinition declares one record type.
type TypeDefinition struct {
	Name      string `yaml:"name" validate:"required"`
	Namespace string `yaml:"namespace"`
	Doc       string `yaml:"doc"`

	// Key names the key field. It is not checked against Fields here; an
	// unknown name surfaces when a key is derived.
	Key string `yaml:"key"`

	// KeyFormat selects a keyserde serializer; empty uses the defaults.
	KeyFormat  string `yaml:"key_format" validate:"omitempty,oneof=utf8 cbor wire"`
	KeyVersion int    `yaml:"key_version" validate:"min=0"`

	Fields []FieldDefinition `yaml:"fields" validate:"required,min=1,dive"`
}

// FieldDefinition declares one field of a TypeDefinition.
type FieldDefinition struct {
	Name   string `yaml:"name" validate:"required"`
	Type   string `yaml:"type" validate:"required,oneof=string bytes boolean int long float double array map record"`
	Items  string `yaml:"items" validate:"omitempty,oneof=string bytes boolean int long float double record"`
	Record string `yaml:"record" validate:"required_if=Type record"`
	Doc    string `yaml:"doc"`
}

// LoadDefinitions reads YAML type definitions from r and builds the types,
// keyed by name.
func LoadDefinitions(r io.Reader) (map[string]*Type, error) {
	var defs Definitions
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty definitions", ErrInvalidType)
		}
		return nil, fmt.Errorf("failed to parse record definitions: %w", err)
	}
	return defs.Build()
}

// ParseDefinitions is LoadDefinitions over a byte slice.
func ParseDefinitions(data []byte) (map[string]*Type, error) {
	return LoadDefinitions(bytes.NewReader(data))
}

// Build validates the definitions and builds the types in order.
func (d Definitions) Build() (map[string]*Type, error) {
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidType, err)
	}

	types := make(map[string]*Type, len(d.Types))
	for _, td := range d.Types {
		if _, ok := types[td.Name]; ok {
			return nil, fmt.Errorf("%w: type %s defined twice", ErrInvalidType, td.Name)
		}
		t, err := td.build(types)
		if err != nil {
			return nil, err
		}
		types[td.Name] = t
	}
	return types, nil
}

func (td TypeDefinition) build(known map[string]*Type) (*Type, error) {
	fields := make([]Field, 0, len(td.Fields))
	for _, fd := range td.Fields {
		f := Field{Name: fd.Name, Doc: fd.Doc}
		f.Type, _ = recordkey.ParseFieldType(fd.Type)
		if fd.Items != "" {
			f.Items, _ = recordkey.ParseFieldType(fd.Items)
		}
		if fd.Record != "" {
			nested, ok := known[fd.Record]
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s references %s", ErrUnknownType, td.Name, fd.Name, fd.Record)
			}
			f.Record = nested
		}
		fields = append(fields, f)
	}

	opts := []Option{WithNamespace(td.Namespace), WithDoc(td.Doc)}
	if td.Key != "" {
		opts = append(opts, WithKey(td.Key))
	}
	if td.KeyFormat != "" {
		s, err := keyserde.Named(td.KeyFormat, td.KeyVersion)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidType, td.Name, err)
		}
		opts = append(opts, WithKeySerializer(s))
	}

	return NewType(td.Name, fields, opts...)
}
