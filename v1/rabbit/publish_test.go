package rabbit

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Aleph-Alpha/recordkey/v1/observability"
	"github.com/Aleph-Alpha/recordkey/v1/record"
	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
	"github.com/Aleph-Alpha/recordkey/v1/tracer"
)

type published struct {
	exchange   string
	routingKey string
	mandatory  bool
	msg        amqp.Publishing
}

// fakeChannel records publishes instead of talking to a broker.
type fakeChannel struct {
	mu        sync.Mutex
	published []published
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithDeferredConfirmWithContext(_ context.Context, exchange, key string, mandatory, _ bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.published = append(c.published, published{exchange: exchange, routingKey: key, mandatory: mandatory, msg: msg})
	return nil, nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

var userType = record.MustType("User",
	[]record.Field{
		{Name: "_id", Type: recordkey.String},
		{Name: "age", Type: recordkey.Int},
	},
	record.WithKey("_id"),
	record.WithNamespace("com.example"),
)

func newTestPublisher() (*Publisher, *fakeChannel) {
	ch := &fakeChannel{}
	return newPublisherWithChannel(Config{Exchange: Exchange{Name: "users"}}, ch), ch
}

func TestPublish(t *testing.T) {
	p, ch := newTestPublisher()

	user, err := userType.New(map[string]any{"_id": "abc", "age": int32(30)})
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), user, map[string]interface{}{"source": "test"}))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "users", got.exchange)
	assert.Equal(t, "616263", got.routingKey)
	assert.Equal(t, DefaultContentType, got.msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), got.msg.DeliveryMode)
	assert.Equal(t, []byte("abc"), got.msg.Headers[KeyHeader])
	assert.Equal(t, "com.example.User", got.msg.Headers[TypeHeader])
	assert.Equal(t, "test", got.msg.Headers["source"])

	decoded, err := userType.DecodeAvro(got.msg.Body)
	require.NoError(t, err)
	age, _ := decoded.Value("age")
	assert.Equal(t, int32(30), age)
}

func TestPublish_SameKeySameRoutingKey(t *testing.T) {
	p, ch := newTestPublisher()

	for _, age := range []int32{1, 2} {
		user, err := userType.New(map[string]any{"_id": "abc", "age": age})
		require.NoError(t, err)
		require.NoError(t, p.Publish(context.Background(), user, nil))
	}

	require.Len(t, ch.published, 2)
	assert.Equal(t, ch.published[0].routingKey, ch.published[1].routingKey)
}

func TestPublish_TraceHeaders(t *testing.T) {
	p, ch := newTestPublisher()
	recorder := tracetest.NewSpanRecorder()
	p.WithTracer(tracer.NewWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))))

	user, err := userType.New(map[string]any{"_id": "abc", "age": int32(30)})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), user, map[string]interface{}{"source": "test"}))

	require.Len(t, ch.published, 1)
	headers := ch.published[0].msg.Headers
	assert.Equal(t, "test", headers["source"])
	require.Contains(t, headers, "traceparent")

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "rabbit.publish", ended[0].Name())
	assert.Contains(t, headers["traceparent"], ended[0].SpanContext().TraceID().String())
}

func TestPublish_KeyError(t *testing.T) {
	p, ch := newTestPublisher()
	var ops []observability.OperationContext
	p.WithObserver(observability.ObserverFunc(func(op observability.OperationContext) {
		ops = append(ops, op)
	}))

	invalid := record.MustType("UserWithInvalidId",
		[]record.Field{{Name: "some_id", Type: recordkey.String}},
		record.WithKey("invalid_id"),
	)

	err := p.Publish(context.Background(), record.MustFake(invalid), nil)
	require.Error(t, err)
	assert.True(t, IsKeyError(err))
	assert.True(t, recordkey.IsMissingField(err))
	assert.False(t, IsRetryableError(err))
	assert.Empty(t, ch.published)

	require.Len(t, ops, 1)
	assert.Equal(t, "rabbit", ops[0].Component)
	assert.Equal(t, "derive_key", ops[0].Operation)
	assert.Equal(t, "invalid_id", ops[0].SubResource)
}

func TestPublish_RoutingKeyTooLong(t *testing.T) {
	p, ch := newTestPublisher()

	blobType := record.MustType("Blob", []record.Field{{Name: "_id", Type: recordkey.Bytes}}, record.WithKey("_id"))
	blob, err := blobType.New(map[string]any{"_id": make([]byte, 128)})
	require.NoError(t, err)

	err = p.Publish(context.Background(), blob, nil)
	assert.ErrorIs(t, err, ErrRoutingKeyTooLong)
	assert.True(t, IsKeyError(err))
	assert.Empty(t, ch.published)
}

func TestRoutingKey(t *testing.T) {
	key, err := RoutingKey([]byte{0x00, 0x00, 0x00, 0x00, 0x2a, 'a'})
	require.NoError(t, err)
	assert.Equal(t, "000000002a61", key)

	raw, err := hex.DecodeString(key)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x2a, 'a'}, raw)

	_, err = RoutingKey(make([]byte, 127))
	assert.NoError(t, err)
	_, err = RoutingKey(make([]byte, 128))
	assert.ErrorIs(t, err, ErrRoutingKeyTooLong)
}

func TestPublish_ChannelError(t *testing.T) {
	p, ch := newTestPublisher()
	var ops []observability.OperationContext
	p.WithObserver(observability.ObserverFunc(func(op observability.OperationContext) {
		ops = append(ops, op)
	}))
	ch.err = amqp.ErrClosed

	user, err := userType.New(map[string]any{"_id": "abc", "age": int32(1)})
	require.NoError(t, err)

	err = p.Publish(context.Background(), user, nil)
	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.True(t, IsRetryableError(err))

	require.Len(t, ops, 2)
	assert.Equal(t, "produce", ops[1].Operation)
	assert.Equal(t, "users", ops[1].Resource)
	assert.Error(t, ops[1].Error)
}

func TestPublish_CanceledContext(t *testing.T) {
	p, ch := newTestPublisher()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	user, err := userType.New(map[string]any{"_id": "abc", "age": int32(1)})
	require.NoError(t, err)

	err = p.Publish(ctx, user, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ch.published)
}

func TestPublish_AfterClose(t *testing.T) {
	p, ch := newTestPublisher()

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, ch.closed)

	user, err := userType.New(map[string]any{"_id": "abc", "age": int32(1)})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), user, nil), ErrClosed)

	// RetryConnection returns immediately without a connection
	p.RetryConnection()
}

func TestNewPublisher_ConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no host", cfg: Config{Connection: Connection{Port: 5672}, Exchange: Exchange{Name: "users"}}},
		{name: "no port", cfg: Config{Connection: Connection{Host: "localhost"}, Exchange: Exchange{Name: "users"}}},
		{name: "no exchange", cfg: Config{Connection: Connection{Host: "localhost", Port: 5672}}},
		{name: "unknown exchange type", cfg: Config{Connection: Connection{Host: "localhost", Port: 5672}, Exchange: Exchange{Name: "users", Type: "fanout"}}},
		{name: "cert without paths", cfg: Config{Connection: Connection{Host: "localhost", Port: 5672, UseCert: true}, Exchange: Exchange{Name: "users"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPublisher(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(errors.New("boom")))
	assert.True(t, IsRetryableError(ErrNotAcknowledged))
	assert.True(t, IsRetryableError(connectionError(errors.New("dial tcp: refused"))))
	assert.True(t, IsRetryableError(&amqp.Error{Code: amqp.ConnectionForced, Recover: true}))
	assert.False(t, IsRetryableError(&amqp.Error{Code: amqp.AccessRefused, Recover: false}))
	assert.False(t, IsRetryableError(ErrValueSerialization))
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	assert.Equal(t, ExchangeConsistentHash, cfg.Exchange.Type)
	assert.Equal(t, DefaultContentType, cfg.Exchange.ContentType)
	assert.Equal(t, DefaultReconnectDelay, cfg.ReconnectDelay)
}
