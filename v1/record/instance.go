package record

import (
	"maps"
	"slices"

	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
)

// Instance is a concrete value of a record Type.
// It implements recordkey.Source.
type Instance struct {
	typ    *Type
	values map[string]any
}

var _ recordkey.Source = (*Instance)(nil)

// Type returns the record type of the instance.
func (i *Instance) Type() *Type { return i.typ }

// Fields returns the declared fields of the instance's type as seen by the
// key engine.
func (i *Instance) Fields() []recordkey.Field {
	return slices.Clone(i.typ.keyFields)
}

// Value returns the current value of the named field.
func (i *Instance) Value(name string) (any, bool) {
	v, ok := i.values[name]
	return v, ok
}

// KeyConfig returns the key configuration of the instance's type.
func (i *Instance) KeyConfig() *recordkey.Config {
	return i.typ.KeyConfig()
}

// Key derives the instance's key. It is recomputed on every call.
func (i *Instance) Key() ([]byte, error) {
	return recordkey.Derive(i)
}

// AsMap returns a shallow copy of the instance's field values.
func (i *Instance) AsMap() map[string]any {
	return maps.Clone(i.values)
}
