package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/Aleph-Alpha/recordkey/v1/logger"
	"github.com/Aleph-Alpha/recordkey/v1/observability"
	"github.com/Aleph-Alpha/recordkey/v1/record"
	"github.com/Aleph-Alpha/recordkey/v1/tracer"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes record instances to a topic, keyed by the key each
// record's type declares.
type Producer struct {
	// cfg stores the configuration for this producer
	cfg Config

	// writer is the Kafka writer used for publishing messages
	writer messageWriter

	// serializer encodes record values
	serializer record.ValueSerializer

	// observer provides optional observability hooks for tracking operations
	observer observability.Observer

	// tracer, when set, wraps every publish in a span and propagates it
	// through message headers
	tracer *tracer.Tracer

	// logger is optional; nil disables producer logging
	logger logger.Logger

	// mu protects the writer against Publish racing Close
	mu     sync.RWMutex
	closed bool
}

// NewProducer validates cfg, applies defaults and creates the underlying
// kafka-go writer.
//
// Example:
//
//	producer, err := kafka.NewProducer(kafka.Config{
//	    Brokers: []string{"localhost:9092"},
//	    Topic:   "users",
//	})
//	if err != nil {
//	    return err
//	}
//	defer producer.Close()
func NewProducer(cfg Config) (*Producer, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.applyDefaults()

	var tlsConfig *tls.Config
	var err error
	if cfg.TLS.Enabled {
		tlsConfig, err = createTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	var mechanism sasl.Mechanism
	if cfg.SASL.Enabled {
		mechanism, err = createSASLMechanism(cfg.SASL)
		if err != nil {
			return nil, fmt.Errorf("failed to create SASL mechanism: %w", err)
		}
	}

	p := &Producer{
		cfg:        cfg,
		serializer: record.AvroSerializer{SchemaID: cfg.ValueSchemaID},
	}
	p.writer = createWriter(cfg, tlsConfig, mechanism, p.errorLogger())

	return p, nil
}

// newProducerWithWriter builds a producer around an existing writer.
// Tests use it to avoid a broker.
func newProducerWithWriter(cfg Config, w messageWriter) *Producer {
	cfg.applyDefaults()
	return &Producer{
		cfg:        cfg,
		writer:     w,
		serializer: record.AvroSerializer{SchemaID: cfg.ValueSchemaID},
	}
}

// WithObserver attaches an observer for produce and key-derivation
// operations. It returns the producer for chaining.
func (p *Producer) WithObserver(observer observability.Observer) *Producer {
	p.observer = observer
	return p
}

// WithTracer enables spans and trace-context headers on publish.
func (p *Producer) WithTracer(t *tracer.Tracer) *Producer {
	p.tracer = t
	return p
}

// WithLogger enables producer logging. kafka-go internal errors are routed
// to it as well.
func (p *Producer) WithLogger(l logger.Logger) *Producer {
	p.logger = l
	return p
}

// WithValueSerializer replaces the default Avro value serializer.
func (p *Producer) WithValueSerializer(s record.ValueSerializer) *Producer {
	p.serializer = s
	return p
}

// Close flushes pending messages and closes the writer. Publishing after
// Close returns ErrClosed.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

// errorLogger routes kafka-go internal errors: the attached logger first,
// then cfg.ErrorLogger, then the standard log package. It resolves them at
// call time so builders applied after NewProducer take effect.
func (p *Producer) errorLogger() kafka.LoggerFunc {
	return func(msg string, args ...interface{}) {
		if p.logger != nil {
			p.logger.Error("Kafka internal error", nil, map[string]interface{}{
				"error": fmt.Sprintf(msg, args...),
			})
			return
		}
		if p.cfg.ErrorLogger != nil {
			p.cfg.ErrorLogger(msg, args...)
			return
		}
		log.Printf("KAFKA ERROR: "+msg, args...)
	}
}

func balancerFor(name string) kafka.Balancer {
	switch name {
	case BalancerHash:
		return &kafka.Hash{}
	case BalancerCRC32:
		return kafka.CRC32Balancer{}
	case BalancerLeastBytes:
		return &kafka.LeastBytes{}
	default:
		return kafka.Murmur2Balancer{}
	}
}

// createWriter creates a Kafka writer with the given configuration
func createWriter(cfg Config, tlsConfig *tls.Config, mechanism sasl.Mechanism, errorLogger kafka.LoggerFunc) *kafka.Writer {
	writerConfig := kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     balancerFor(cfg.Balancer),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: cfg.RequiredAcks,
		BatchSize:    1,
		ErrorLogger:  errorLogger,
	}

	if cfg.Async {
		writerConfig.Async = true
		writerConfig.BatchSize = cfg.BatchSize
		writerConfig.BatchTimeout = cfg.BatchTimeout
	}

	switch cfg.CompressionCodec {
	case "gzip":
		writerConfig.CompressionCodec = &compress.GzipCodec
	case "snappy":
		writerConfig.CompressionCodec = &compress.SnappyCodec
	case "lz4":
		writerConfig.CompressionCodec = &compress.Lz4Codec
	case "zstd":
		writerConfig.CompressionCodec = &compress.ZstdCodec
	}

	writerConfig.Dialer = &kafka.Dialer{
		TLS:           tlsConfig,
		SASLMechanism: mechanism,
	}

	return kafka.NewWriter(writerConfig)
}

// createTLSConfig creates a TLS configuration from the provided config
func createTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

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

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// createSASLMechanism creates a SASL mechanism from the provided config
func createSASLMechanism(cfg SASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "PLAIN":
		return plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %q", cfg.Mechanism)
	}
}

// Partition returns the partition, out of n, that the named balancer picks
// for key. Least-bytes balancing ignores keys and is rejected.
func Partition(balancer string, key []byte, n int) (int, error) {
	if balancer == "" {
		balancer = DefaultBalancer
	}
	if balancer == BalancerLeastBytes {
		return 0, fmt.Errorf("%w: balancer %s does not use keys", ErrInvalidConfig, balancer)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: partition count must be positive, got %d", ErrInvalidConfig, n)
	}

	partitions := make([]int, n)
	for i := range partitions {
		partitions[i] = i
	}
	return balancerFor(balancer).Balance(kafka.Message{Key: key}, partitions...), nil
}
