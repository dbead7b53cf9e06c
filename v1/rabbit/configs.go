package rabbit

import "time"

// Defaults applied by NewPublisher for zero-valued fields.
const (
	DefaultExchangeType   = ExchangeConsistentHash
	DefaultContentType    = "avro/binary"
	DefaultHeartbeat      = 2 * time.Second
	DefaultReconnectDelay = time.Second
)

// Exchange types that route by the message's routing key. The hash
// exchanges need the rabbitmq_consistent_hash_exchange and
// rabbitmq_sharding plugins respectively.
const (
	ExchangeConsistentHash = "x-consistent-hash"
	ExchangeModulusHash    = "x-modulus-hash"
	ExchangeDirect         = "direct"
	ExchangeTopic          = "topic"
)

// Config defines the configuration of the keyed RabbitMQ publisher.
type Config struct {
	// Connection contains the settings needed to reach the RabbitMQ server
	Connection Connection `yaml:"connection"`

	// Exchange is where every record is published
	Exchange Exchange `yaml:"exchange"`

	// ValueSchemaID, when non-zero, frames Avro values in the Confluent wire
	// format with this schema ID.
	ValueSchemaID int `yaml:"value_schema_id" envconfig:"RABBIT_VALUE_SCHEMA_ID" validate:"min=0"`

	// ReconnectDelay is the pause between reconnection attempts
	ReconnectDelay time.Duration `yaml:"reconnect_delay" envconfig:"RABBIT_RECONNECT_DELAY"`
}

// Connection contains the configuration parameters needed to establish
// a connection to a RabbitMQ server, including authentication and TLS settings.
type Connection struct {
	// Host is the RabbitMQ server hostname or IP address
	Host string `yaml:"host" envconfig:"RABBIT_HOST" validate:"required"`

	// Port is the RabbitMQ server port (typically 5672 for non-SSL, 5671 for SSL)
	Port uint `yaml:"port" envconfig:"RABBIT_PORT" validate:"required,max=65535"`

	User     string `yaml:"user" envconfig:"RABBIT_USER"`
	Password string `yaml:"password" envconfig:"RABBIT_PASSWORD"`

	// IsSSLEnabled switches to the amqps scheme
	IsSSLEnabled bool `yaml:"is_ssl_enabled" envconfig:"RABBIT_SSL_ENABLED"`

	// UseCert sends a client certificate for mutual TLS
	UseCert bool `yaml:"use_cert" envconfig:"RABBIT_USE_CERT"`

	CACertPath     string `yaml:"ca_cert_path" envconfig:"RABBIT_CA_CERT_PATH" validate:"required_if=UseCert true"`
	ClientCertPath string `yaml:"client_cert_path" envconfig:"RABBIT_CLIENT_CERT_PATH" validate:"required_if=UseCert true"`
	ClientKeyPath  string `yaml:"client_key_path" envconfig:"RABBIT_CLIENT_KEY_PATH" validate:"required_if=UseCert true"`

	// ServerName is the server name to use for TLS verification
	ServerName string `yaml:"server_name" envconfig:"RABBIT_SERVER_NAME"`
}

// Exchange configures the exchange records are published to.
type Exchange struct {
	Name string `yaml:"name" envconfig:"RABBIT_EXCHANGE_NAME" validate:"required"`

	// Type is one of the Exchange* constants. With the hash exchanges, queues
	// are bound with a weight as binding key and records sharing a key always
	// reach the same queue.
	Type string `yaml:"type" envconfig:"RABBIT_EXCHANGE_TYPE" validate:"omitempty,oneof=x-consistent-hash x-modulus-hash direct topic"`

	// Declare makes NewPublisher declare the exchange as durable
	Declare bool `yaml:"declare" envconfig:"RABBIT_EXCHANGE_DECLARE"`

	// Mandatory asks the broker to return unroutable messages
	Mandatory bool `yaml:"mandatory" envconfig:"RABBIT_MANDATORY"`

	ContentType string `yaml:"content_type" envconfig:"RABBIT_CONTENT_TYPE"`
}

func (cfg *Config) applyDefaults() {
	if cfg.Exchange.Type == "" {
		cfg.Exchange.Type = DefaultExchangeType
	}
	if cfg.Exchange.ContentType == "" {
		cfg.Exchange.ContentType = DefaultContentType
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
}
