package keyserde_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/recordkey/v1/keyserde"
	"github.com/Aleph-Alpha/recordkey/v1/record"
	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
	"github.com/Aleph-Alpha/recordkey/v1/schema_registry"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestUTF8(t *testing.T) {
	s := keyserde.UTF8()

	out, err := s("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	out, err = s([]byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, out)

	out, err = s(stringer("xyz"))
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), out)

	_, err = s(42)
	assert.ErrorIs(t, err, keyserde.ErrUnsupportedValue)
}

func TestWireFormat(t *testing.T) {
	userType := record.MustType("UserWithCustomId",
		[]record.Field{{Name: "_id", Type: recordkey.String}},
		record.WithKey("_id"),
		record.WithKeySerializer(keyserde.WireFormat(42, nil)),
	)

	user, err := userType.New(map[string]any{"_id": "abc"})
	require.NoError(t, err)

	key, err := user.Key()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x2a, 0x61, 0x62, 0x63}, key)

	id, payload, err := schema_registry.DecodeSchemaID(key)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, []byte("abc"), payload)
}

func TestWireFormat_InnerErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	s := keyserde.WireFormat(1, func(any) ([]byte, error) { return nil, boom })

	_, err := s("abc")
	assert.Same(t, boom, err)
}

func TestCBOR_StructuredKey(t *testing.T) {
	userType := record.MustType("UserWithComplexIdType",
		[]record.Field{{Name: "complex_id", Type: recordkey.Array, Items: recordkey.Int}},
		record.WithKey("complex_id"),
		record.WithKeySerializer(keyserde.CBOR()),
	)

	user, err := userType.New(map[string]any{"complex_id": []int32{1, 2, 3}})
	require.NoError(t, err)

	key, err := user.Key()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x83, 0x01, 0x02, 0x03}, key)

	var decoded []int
	require.NoError(t, cbor.Unmarshal(key, &decoded))
	assert.Equal(t, []int{1, 2, 3}, decoded)
}

func TestCBOR_Deterministic(t *testing.T) {
	s := keyserde.CBOR()

	a, err := s(map[string]any{"b": 2, "a": 1, "c": []string{"x"}})
	require.NoError(t, err)
	b, err := s(map[string]any{"c": []string{"x"}, "a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCBOR_NestedRecord(t *testing.T) {
	address := record.MustType("Address", []record.Field{{Name: "city", Type: recordkey.String}})
	home, err := address.New(map[string]any{"city": "Heidelberg"})
	require.NoError(t, err)

	s := keyserde.CBOR()
	got, err := s(home)
	require.NoError(t, err)

	want, err := s(map[string]any{"city": "Heidelberg"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCBOR_Unsupported(t *testing.T) {
	_, err := keyserde.CBOR()(make(chan int))
	assert.ErrorIs(t, err, keyserde.ErrUnsupportedValue)
}

func TestNamed(t *testing.T) {
	for _, format := range []string{keyserde.FormatUTF8, keyserde.FormatCBOR, keyserde.FormatWire} {
		s, err := keyserde.Named(format, 1)
		require.NoError(t, err, format)
		assert.NotNil(t, s, format)
	}

	_, err := keyserde.Named("protobuf", 0)
	assert.ErrorIs(t, err, keyserde.ErrUnknownFormat)
}

func TestRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := schema_registry.NewMockRegistry(ctrl)

	reg.EXPECT().
		GetLatestSchema(gomock.Any(), "users-key").
		Return(&schema_registry.Metadata{ID: 42, Subject: "users-key"}, nil).
		Times(1)

	s, err := keyserde.Registry(context.Background(), reg, schema_registry.KeySubject("users"), nil)
	require.NoError(t, err)

	// the lookup is not repeated per key
	for range 3 {
		key, err := s("abc")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x2a, 'a', 'b', 'c'}, key)
	}
}

func TestRegistry_LookupFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := schema_registry.NewMockRegistry(ctrl)

	reg.EXPECT().
		GetLatestSchema(gomock.Any(), "users-key").
		Return(nil, &schema_registry.StatusError{StatusCode: 404, Body: "Subject not found."})

	_, err := keyserde.Registry(context.Background(), reg, "users-key", nil)
	require.Error(t, err)
	assert.True(t, schema_registry.IsNotFoundError(err))
}
