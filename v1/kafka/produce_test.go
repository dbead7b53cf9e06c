package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Aleph-Alpha/recordkey/v1/keyserde"
	"github.com/Aleph-Alpha/recordkey/v1/logger"
	"github.com/Aleph-Alpha/recordkey/v1/observability"
	"github.com/Aleph-Alpha/recordkey/v1/record"
	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
	"github.com/Aleph-Alpha/recordkey/v1/schema_registry"
	"github.com/Aleph-Alpha/recordkey/v1/tracer"
)

// fakeWriter records written messages instead of talking to a broker.
type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// testObserver collects observed operations.
type testObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (o *testObserver) ObserveOperation(op observability.OperationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
}

func (o *testObserver) operations(name string) []observability.OperationContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []observability.OperationContext
	for _, op := range o.ops {
		if op.Operation == name {
			out = append(out, op)
		}
	}
	return out
}

var userType = record.MustType("User",
	[]record.Field{
		{Name: "_id", Type: recordkey.String},
		{Name: "age", Type: recordkey.Int},
	},
	record.WithKey("_id"),
)

func newUser(t *testing.T, id string) *record.Instance {
	t.Helper()
	u, err := userType.New(map[string]any{"_id": id, "age": int32(30)})
	require.NoError(t, err)
	return u
}

func newTestProducer() (*Producer, *fakeWriter) {
	w := &fakeWriter{}
	return newProducerWithWriter(Config{Brokers: []string{"localhost:9092"}, Topic: "users"}, w), w
}

func TestPublish_KeyAndValue(t *testing.T) {
	p, w := newTestProducer()

	user := newUser(t, "abc")
	require.NoError(t, p.Publish(context.Background(), user, map[string]string{"source": "test"}))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, []byte("abc"), msg.Key)

	decoded, err := userType.DecodeAvro(msg.Value)
	require.NoError(t, err)
	id, _ := decoded.Value("_id")
	assert.Equal(t, "abc", id)

	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "source", msg.Headers[0].Key)
	assert.Equal(t, []byte("test"), msg.Headers[0].Value)
}

func TestPublish_CustomKeySerializerAndFramedValue(t *testing.T) {
	eventType := record.MustType("Event",
		[]record.Field{{Name: "_id", Type: recordkey.String}},
		record.WithKey("_id"),
		record.WithKeySerializer(keyserde.WireFormat(42, nil)),
	)
	event, err := eventType.New(map[string]any{"_id": "abc"})
	require.NoError(t, err)

	w := &fakeWriter{}
	p := newProducerWithWriter(Config{Brokers: []string{"localhost:9092"}, Topic: "events", ValueSchemaID: 7}, w)

	require.NoError(t, p.Publish(context.Background(), event, nil))

	require.Len(t, w.messages, 1)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x2a, 'a', 'b', 'c'}, w.messages[0].Key)

	id, payload, err := schema_registry.DecodeSchemaID(w.messages[0].Value)
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	decoded, err := eventType.DecodeAvro(payload)
	require.NoError(t, err)
	v, _ := decoded.Value("_id")
	assert.Equal(t, "abc", v)
}

func TestPublish_KeyErrors(t *testing.T) {
	tests := []struct {
		name    string
		typ     *record.Type
		values  map[string]any
		check   func(error) bool
		message string
	}{
		{
			name:    "missing field",
			typ:     record.MustType("UserWithInvalidId", []record.Field{{Name: "some_id", Type: recordkey.String}}, record.WithKey("invalid_id")),
			values:  map[string]any{"some_id": "x"},
			check:   recordkey.IsMissingField,
			message: "There is no field with name invalid_id!",
		},
		{
			name:    "unconfigured",
			typ:     record.MustType("UserWithoutKey", []record.Field{{Name: "some_id", Type: recordkey.String}}),
			values:  map[string]any{"some_id": "x"},
			check:   recordkey.IsUnconfigured,
			message: "`key` attribute is not specified! You can declare it via a Meta class attribute",
		},
		{
			name:    "unencodable",
			typ:     record.MustType("UserWithComplexIdType", []record.Field{{Name: "complex_id", Type: recordkey.Array, Items: recordkey.Long}}, record.WithKey("complex_id")),
			values:  map[string]any{"complex_id": []int64{1, 2}},
			check:   recordkey.IsUnencodable,
			message: "I don't know how to encode the key for complex_id of type []int64!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, w := newTestProducer()
			obs := &testObserver{}
			p.WithObserver(obs)

			inst, err := tt.typ.New(tt.values)
			require.NoError(t, err)

			err = p.Publish(context.Background(), inst, nil)
			require.Error(t, err)
			assert.True(t, IsKeyError(err))
			assert.True(t, tt.check(err))
			assert.Contains(t, err.Error(), tt.message)

			var keyErr *recordkey.Error
			require.ErrorAs(t, err, &keyErr)
			assert.Equal(t, tt.message, keyErr.Error())

			assert.Empty(t, w.messages)

			derived := obs.operations("derive_key")
			require.Len(t, derived, 1)
			assert.Equal(t, tt.typ.Name(), derived[0].Resource)
			assert.Error(t, derived[0].Error)
			assert.Empty(t, obs.operations("produce"))
		})
	}
}

func TestPublish_ConfigurationErrorClassification(t *testing.T) {
	p, _ := newTestProducer()

	noKey := record.MustType("UserWithoutKey", []record.Field{{Name: "some_id", Type: recordkey.String}})
	err := p.Publish(context.Background(), record.MustFake(noKey), nil)
	assert.True(t, IsConfigurationError(err))

	complexKey := record.MustType("UserWithComplexIdType",
		[]record.Field{{Name: "complex_id", Type: recordkey.Array, Items: recordkey.Int}},
		record.WithKey("complex_id"),
	)
	err = p.Publish(context.Background(), record.MustFake(complexKey), nil)
	assert.False(t, IsConfigurationError(err))
}

func TestPublishBatch_AllOrNothing(t *testing.T) {
	p, w := newTestProducer()

	noKey := record.MustType("UserWithoutKey", []record.Field{{Name: "some_id", Type: recordkey.String}})

	err := p.PublishBatch(context.Background(), []*record.Instance{
		newUser(t, "a"),
		record.MustFake(noKey),
		newUser(t, "c"),
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1:")
	assert.True(t, recordkey.IsUnconfigured(err))
	assert.Empty(t, w.messages)

	require.NoError(t, p.PublishBatch(context.Background(), []*record.Instance{newUser(t, "a"), newUser(t, "b")}, nil))
	require.Len(t, w.messages, 2)
	assert.Equal(t, []byte("a"), w.messages[0].Key)
	assert.Equal(t, []byte("b"), w.messages[1].Key)

	assert.NoError(t, p.PublishBatch(context.Background(), nil, nil))
}

func TestPublish_ValueSerializationError(t *testing.T) {
	p, w := newTestProducer()
	boom := errors.New("boom")
	p.WithValueSerializer(record.ValueSerializerFunc(func(*record.Instance) ([]byte, error) { return nil, boom }))

	err := p.Publish(context.Background(), newUser(t, "abc"), nil)
	assert.ErrorIs(t, err, ErrValueSerialization)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsKeyError(err))
	assert.Empty(t, w.messages)
}

func TestPublish_WriteError(t *testing.T) {
	p, w := newTestProducer()
	obs := &testObserver{}
	p.WithObserver(obs)

	core, logs := observer.New(zapcore.DebugLevel)
	p.WithLogger(logger.NewFromZap(zap.New(core), false))

	w.err = errors.New("broker unavailable")

	err := p.Publish(context.Background(), newUser(t, "abc"), nil)
	assert.ErrorIs(t, err, w.err)

	produced := obs.operations("produce")
	require.Len(t, produced, 1)
	assert.Equal(t, "users", produced[0].Resource)
	assert.Equal(t, "User", produced[0].SubResource)
	assert.Error(t, produced[0].Error)

	assert.Equal(t, 1, logs.FilterMessage("Failed to publish records").Len())
}

func TestPublish_ObservesSuccess(t *testing.T) {
	p, _ := newTestProducer()
	obs := &testObserver{}
	p.WithObserver(obs)

	require.NoError(t, p.Publish(context.Background(), newUser(t, "abc"), nil))

	derived := obs.operations("derive_key")
	require.Len(t, derived, 1)
	assert.Equal(t, "kafka", derived[0].Component)
	assert.Equal(t, "User", derived[0].Resource)
	assert.Equal(t, "_id", derived[0].SubResource)
	assert.Equal(t, int64(3), derived[0].Size)
	assert.NoError(t, derived[0].Error)

	produced := obs.operations("produce")
	require.Len(t, produced, 1)
	assert.NoError(t, produced[0].Error)
	assert.Equal(t, 1, produced[0].Metadata["messages"])
}

func TestPublish_TraceHeaders(t *testing.T) {
	p, w := newTestProducer()
	recorder := tracetest.NewSpanRecorder()
	tr := tracer.NewWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	p.WithTracer(tr)

	require.NoError(t, p.Publish(context.Background(), newUser(t, "abc"), map[string]string{"source": "test"}))

	require.Len(t, w.messages, 1)
	headers := make(map[string]string)
	for _, h := range w.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "test", headers["source"])
	assert.Contains(t, headers, "traceparent")

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "kafka.publish", ended[0].Name())
	assert.Contains(t, headers["traceparent"], ended[0].SpanContext().TraceID().String())
}

func TestPublish_AfterClose(t *testing.T) {
	p, w := newTestProducer()

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.Publish(context.Background(), newUser(t, "abc"), nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMergeHeaders(t *testing.T) {
	base := map[string]string{"a": "1"}

	assert.Equal(t, base, mergeHeaders(base, nil))

	merged := mergeHeaders(base, map[string]string{"b": "2", "a": "3"})
	assert.Equal(t, map[string]string{"a": "3", "b": "2"}, merged)
	assert.Equal(t, "1", base["a"])

	assert.Nil(t, toKafkaHeaders(nil))
}
