package rabbit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/recordkey/v1/logger"
	"github.com/Aleph-Alpha/recordkey/v1/observability"
	"github.com/Aleph-Alpha/recordkey/v1/record"
	"github.com/Aleph-Alpha/recordkey/v1/tracer"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

// Publisher publishes record instances to a RabbitMQ exchange. The routing
// key of every message is the record's derived key, hex encoded, so hash
// exchanges keep records with the same key on the same queue.
type Publisher struct {
	cfg Config

	// conn is nil for publishers built around a bare channel
	conn    *amqp.Connection
	channel amqpChannel

	serializer record.ValueSerializer
	observer   observability.Observer
	tracer     *tracer.Tracer

	// logger is optional; nil disables publisher logging
	logger logger.Logger

	// mu protects conn and channel against reconnects and Close
	mu     sync.RWMutex
	closed bool

	// shutdownSignal is closed when the publisher is being shut down
	shutdownSignal    chan struct{}
	closeShutdownOnce sync.Once
}

// NewPublisher validates cfg, connects to the broker and opens a channel in
// confirm mode. With cfg.Exchange.Declare the exchange is declared as well.
//
// Example:
//
//	publisher, err := rabbit.NewPublisher(rabbit.Config{
//	    Connection: rabbit.Connection{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
//	    Exchange:   rabbit.Exchange{Name: "users", Declare: true},
//	})
//	if err != nil {
//	    return err
//	}
//	defer publisher.Close()
func NewPublisher(cfg Config) (*Publisher, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.applyDefaults()

	conn, err := newConnection(cfg.Connection)
	if err != nil {
		return nil, err
	}

	ch, err := openChannel(conn, cfg.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	p := newPublisherWithChannel(cfg, ch)
	p.conn = conn
	return p, nil
}

// newPublisherWithChannel builds a publisher around an existing channel.
// Tests use it to avoid a broker.
func newPublisherWithChannel(cfg Config, ch amqpChannel) *Publisher {
	cfg.applyDefaults()
	return &Publisher{
		cfg:            cfg,
		channel:        ch,
		serializer:     record.AvroSerializer{SchemaID: cfg.ValueSchemaID},
		shutdownSignal: make(chan struct{}),
	}
}

// WithObserver attaches an observer for publish and key-derivation
// operations. It returns the publisher for chaining.
func (p *Publisher) WithObserver(observer observability.Observer) *Publisher {
	p.observer = observer
	return p
}

// WithTracer wraps every publish in a span and propagates its context in
// the message headers.
func (p *Publisher) WithTracer(t *tracer.Tracer) *Publisher {
	p.tracer = t
	return p
}

// WithLogger enables publisher logging.
func (p *Publisher) WithLogger(l logger.Logger) *Publisher {
	p.logger = l
	return p
}

// WithValueSerializer replaces the default Avro value serializer.
func (p *Publisher) WithValueSerializer(s record.ValueSerializer) *Publisher {
	p.serializer = s
	return p
}

// Close stops RetryConnection and closes the channel and connection.
// Publishing after Close returns ErrClosed.
func (p *Publisher) Close() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if p.channel != nil {
		err = p.channel.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// RetryConnection watches the connection and re-establishes it, together
// with its channel, whenever the broker closes it. It blocks until Close and
// is meant to run in its own goroutine.
func (p *Publisher) RetryConnection() {
	for {
		p.mu.RLock()
		conn := p.conn
		p.mu.RUnlock()
		if conn == nil {
			return
		}

		errChan := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-p.shutdownSignal:
			return
		case amqpErr := <-errChan:
			if amqpErr == nil {
				// closed by us
				return
			}
			p.logWarn("RabbitMQ connection closed, reconnecting", amqpErr)
		}

		if !p.reconnect() {
			return
		}
	}
}

// reconnect retries until a new connection and channel are up. It returns
// false when the publisher was closed meanwhile.
func (p *Publisher) reconnect() bool {
	for {
		select {
		case <-p.shutdownSignal:
			return false
		default:
		}

		conn, err := newConnection(p.cfg.Connection)
		if err == nil {
			var ch *amqp.Channel
			ch, err = openChannel(conn, p.cfg.Exchange)
			if err == nil {
				p.mu.Lock()
				if p.closed {
					p.mu.Unlock()
					_ = ch.Close()
					_ = conn.Close()
					return false
				}
				p.conn = conn
				p.channel = ch
				p.mu.Unlock()

				p.logInfo("Reconnected to RabbitMQ", map[string]interface{}{
					"exchange": p.cfg.Exchange.Name,
				})
				return true
			}
			_ = conn.Close()
		}

		p.logError("RabbitMQ reconnection failed", err)
		select {
		case <-p.shutdownSignal:
			return false
		case <-time.After(p.cfg.ReconnectDelay):
		}
	}
}

// openChannel creates a channel in confirm mode and declares the exchange
// if configured to.
func openChannel(conn *amqp.Connection, ex Exchange) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, connectionError(fmt.Errorf("failed to create channel: %w", err))
	}

	if err = ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, connectionError(fmt.Errorf("failed to enable publisher confirms: %w", err))
	}

	if !ex.Declare {
		return ch, nil
	}

	err = ch.ExchangeDeclare(
		ex.Name,
		ex.Type,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,   // Arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", ex.Name, err)
	}

	return ch, nil
}

// newConnection dials the broker. It supports plain AMQP, AMQPS with server
// verification only, and AMQPS with a client certificate.
func newConnection(cfg Connection) (*amqp.Connection, error) {
	scheme := "amqp"
	amqpCfg := amqp.Config{Heartbeat: DefaultHeartbeat}

	if cfg.IsSSLEnabled {
		scheme = "amqps"
		tlsConfig, err := createTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		amqpCfg.TLSClientConfig = tlsConfig
	}

	hostURL := fmt.Sprintf("%s://%v:%v@%v:%v", scheme, cfg.User, cfg.Password, cfg.Host, cfg.Port)
	conn, err := amqp.DialConfig(hostURL, amqpCfg)
	if err != nil {
		return nil, connectionError(err)
	}
	return conn, nil
}

func createTLSConfig(cfg Connection) (*tls.Config, error) {
	tlsConfig := &tls.Config{ServerName: cfg.ServerName}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.UseCert {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func (p *Publisher) logInfo(msg string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, nil, fields)
	}
}

func (p *Publisher) logWarn(msg string, err error) {
	if p.logger != nil {
		p.logger.Warn(msg, err, map[string]interface{}{"exchange": p.cfg.Exchange.Name})
	}
}

func (p *Publisher) logError(msg string, err error) {
	if p.logger != nil {
		p.logger.Error(msg, err, map[string]interface{}{"exchange": p.cfg.Exchange.Name})
	}
}
