// Package kafka publishes record instances to Apache Kafka, keyed by the
// key their record type declares.
//
// The message key is whatever recordkey derives for the instance: UTF-8 for
// text key fields, the raw bytes for byte key fields, or the output of the
// type's custom key serializer. The value is the instance encoded with a
// record.ValueSerializer, Avro by default.
//
// Core Features:
//   - Key derivation per message, never cached
//   - Key-aware partitioning (murmur2 by default, matching the Java client)
//   - Avro values, optionally framed in the Confluent wire format
//   - TLS, SASL (PLAIN, SCRAM) and compression
//   - Optional logger, observer and tracer
//
// Basic Usage:
//
//	userType := record.MustType("User",
//	    []record.Field{
//	        {Name: "_id", Type: recordkey.String},
//	        {Name: "name", Type: recordkey.String},
//	    },
//	    record.WithKey("_id"),
//	)
//
//	producer, err := kafka.NewProducer(kafka.Config{
//	    Brokers: []string{"localhost:9092"},
//	    Topic:   "users",
//	})
//	if err != nil {
//	    return err
//	}
//	defer producer.Close()
//
//	user, _ := userType.New(map[string]any{"_id": "abc", "name": "Ada"})
//	if err := producer.Publish(ctx, user, nil); err != nil {
//	    if recordkey.IsMissingField(err) {
//	        // key configuration is stale
//	    }
//	    return err
//	}
//
// Error Handling:
//
// Key errors come back wrapped in ErrKeyDerivation with the *recordkey.Error
// still in the chain. Nothing is written for a record whose key cannot be
// derived, and a batch is all or nothing.
//
// Configuration:
//
//	KAFKA_BROKERS=localhost:9092,localhost:9093
//	KAFKA_TOPIC=users
//	KAFKA_BALANCER=murmur2
//	KAFKA_VALUE_SCHEMA_ID=7
//
// Thread Safety:
//
// Publish and PublishBatch are safe for concurrent use. Builders (WithLogger,
// WithObserver, ...) must be called before the producer is shared.
package kafka
