package kafka

import "time"

// Default values applied by NewProducer for zero-valued fields.
const (
	DefaultRequiredAcks = 1
	DefaultBatchSize    = 100
	DefaultBatchTimeout = 1 * time.Second
	DefaultMaxAttempts  = 10
	DefaultWriteTimeout = 10 * time.Second
	DefaultBalancer     = BalancerMurmur2
)

// Partition balancers selectable through Config.Balancer. All of them except
// least_bytes route messages by their derived key.
const (
	// BalancerMurmur2 matches the Java client's default partitioner.
	BalancerMurmur2 = "murmur2"
	// BalancerHash is kafka-go's FNV-1a hash balancer.
	BalancerHash = "hash"
	// BalancerCRC32 matches librdkafka's consistent_random partitioner.
	BalancerCRC32 = "crc32"
	// BalancerLeastBytes ignores keys.
	BalancerLeastBytes = "least_bytes"
)

// Config defines the configuration for the keyed Kafka producer.
type Config struct {
	// Brokers is the list of bootstrap brokers (host:port).
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS" validate:"required,min=1,dive,hostname_port"`

	// Topic receives every published record.
	Topic string `yaml:"topic" envconfig:"KAFKA_TOPIC" validate:"required"`

	// Balancer selects the partitioner; see the Balancer* constants.
	Balancer string `yaml:"balancer" envconfig:"KAFKA_BALANCER" validate:"omitempty,oneof=murmur2 hash crc32 least_bytes"`

	// RequiredAcks is -1 (all), 0 (none) or 1 (leader).
	RequiredAcks int `yaml:"required_acks" envconfig:"KAFKA_REQUIRED_ACKS" validate:"min=-1,max=1"`

	// Async makes Publish return before the broker acknowledges.
	Async bool `yaml:"async" envconfig:"KAFKA_ASYNC"`

	BatchSize    int           `yaml:"batch_size" envconfig:"KAFKA_BATCH_SIZE" validate:"min=0"`
	BatchTimeout time.Duration `yaml:"batch_timeout" envconfig:"KAFKA_BATCH_TIMEOUT"`
	MaxAttempts  int           `yaml:"max_attempts" envconfig:"KAFKA_MAX_ATTEMPTS" validate:"min=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"KAFKA_WRITE_TIMEOUT"`

	// CompressionCodec is one of gzip, snappy, lz4, zstd or empty for none.
	CompressionCodec string `yaml:"compression_codec" envconfig:"KAFKA_COMPRESSION_CODEC" validate:"omitempty,oneof=gzip snappy lz4 zstd"`

	// ValueSchemaID, when non-zero, frames Avro values in the Confluent wire
	// format with this schema ID.
	ValueSchemaID int `yaml:"value_schema_id" envconfig:"KAFKA_VALUE_SCHEMA_ID" validate:"min=0"`

	TLS  TLSConfig  `yaml:"tls"`
	SASL SASLConfig `yaml:"sasl"`

	// ErrorLogger receives kafka-go internal errors when no logger was set
	// with WithLogger.
	ErrorLogger func(msg string, args ...interface{}) `yaml:"-"`
}

// TLSConfig configures TLS towards the brokers.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" envconfig:"KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" envconfig:"KAFKA_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" envconfig:"KAFKA_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" envconfig:"KAFKA_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" envconfig:"KAFKA_TLS_INSECURE_SKIP_VERIFY"`
}

// SASLConfig configures SASL authentication.
type SASLConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"KAFKA_SASL_ENABLED"`
	Mechanism string `yaml:"mechanism" envconfig:"KAFKA_SASL_MECHANISM" validate:"omitempty,oneof=PLAIN SCRAM-SHA-256 SCRAM-SHA-512"`
	Username  string `yaml:"username" envconfig:"KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" envconfig:"KAFKA_SASL_PASSWORD"`
}

func (cfg *Config) applyDefaults() {
	if cfg.Balancer == "" {
		cfg.Balancer = DefaultBalancer
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = DefaultRequiredAcks
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
}
