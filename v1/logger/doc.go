// Package logger provides structured logging on top of Uber's Zap.
//
// The key engine itself never logs; this package serves the parts of the
// module that talk to the outside world: the Kafka producer, the metrics
// server and the keyctl command.
//
// # Architecture
//
//   - Logger interface: the contract other packages depend on
//   - LoggerClient struct: the Zap-backed implementation
//   - FXModule: provides both *LoggerClient and Logger
//
// # Direct Usage
//
//	log := logger.NewLoggerClient(logger.Config{
//	    Level:       logger.Info,
//	    ServiceName: "orders-producer",
//	})
//
//	log.Info("Message published", nil, map[string]interface{}{
//	    "topic": "orders",
//	    "key":   "3f1c...",
//	})
//
//	// with EnableTracing, trace_id and span_id are taken from ctx
//	log.ErrorWithContext(ctx, "Failed to derive message key", err, nil)
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning, error
//	LOGGER_ENABLE_TRACING=true      # add trace and span IDs
//	LOGGER_SERVICE_NAME=orders      # service field on every entry
//
// # Thread Safety
//
// All methods are safe for concurrent use by multiple goroutines.
package logger
