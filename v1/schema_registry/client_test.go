package schema_registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{URL: srv.URL, Username: "user", Password: "pass"})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGetSchemaByID_Cached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/schemas/ids/42", r.URL.Path)
		assert.Equal(t, contentType, r.Header.Get("Accept"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "pass", pass)

		_ = json.NewEncoder(w).Encode(map[string]string{"schema": `"string"`})
	}))

	for range 3 {
		schema, err := c.GetSchemaByID(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, `"string"`, schema)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetLatestSchema(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subjects/users-key/versions/latest", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Metadata{ID: 42, Version: 3, Schema: `"string"`})
	}))

	meta, err := c.GetLatestSchema(context.Background(), KeySubject("users"))
	require.NoError(t, err)
	assert.Equal(t, 42, meta.ID)
	assert.Equal(t, 3, meta.Version)
	assert.Equal(t, "users-key", meta.Subject)

	// the schema is now cached by ID
	schema, err := c.GetSchemaByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, `"string"`, schema)
}

func TestGetLatestSchema_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error_code":40401,"message":"Subject not found."}`))
	}))

	_, err := c.GetLatestSchema(context.Background(), "missing-key")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Subject not found")
}

func TestRegisterSchema(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/subjects/users-value/versions", r.URL.Path)
		assert.Equal(t, contentType, r.Header.Get("Content-Type"))

		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, `"string"`, payload["schema"])
		assert.NotContains(t, payload, "schemaType")

		_ = json.NewEncoder(w).Encode(map[string]int{"id": 7})
	}))

	for range 2 {
		id, err := c.RegisterSchema(context.Background(), ValueSubject("users"), `"string"`, "AVRO")
		require.NoError(t, err)
		assert.Equal(t, 7, id)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheckCompatibility(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compatibility/subjects/users-value/versions/latest", r.URL.Path)

		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "JSON", payload["schemaType"])

		_ = json.NewEncoder(w).Encode(map[string]bool{"is_compatible": true})
	}))

	ok, err := c.CheckCompatibility(context.Background(), "users-value", `{}`, "JSON")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)

	_, err = c.GetSchemaByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.False(t, IsNotFoundError(err))
}

func TestSchemaIDWireFormat(t *testing.T) {
	header := EncodeSchemaID(42)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x2a}, header)

	id, payload, err := DecodeSchemaID(append(header, "abc"...))
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, []byte("abc"), payload)

	_, _, err = DecodeSchemaID([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrInvalidWireFormat)

	_, _, err = DecodeSchemaID([]byte{0x01, 0x00, 0x00, 0x00, 0x2a})
	assert.ErrorIs(t, err, ErrInvalidWireFormat)
}
