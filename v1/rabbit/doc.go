// Package rabbit publishes record instances to a RabbitMQ exchange, keyed
// by the key their record type declares.
//
// AMQP has no partitions, so the derived key becomes the routing key. It is
// hex encoded because routing keys are text, and the raw bytes travel in the
// x-record-key header. Bound to a consistent-hash exchange (the default
// exchange type), queues then play the role partitions play in Kafka: all
// records with the same key reach the same queue, in publish order.
//
// Core Features:
//   - Key derivation per message, never cached
//   - Publisher confirms on every publish
//   - Automatic reconnection through RetryConnection
//   - TLS with optional client certificates
//   - Avro values, optionally framed in the Confluent wire format
//
// Basic Usage:
//
//	publisher, err := rabbit.NewPublisher(rabbit.Config{
//	    Connection: rabbit.Connection{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
//	    Exchange:   rabbit.Exchange{Name: "users", Declare: true},
//	})
//	if err != nil {
//	    return err
//	}
//	defer publisher.Close()
//	go publisher.RetryConnection()
//
//	if err := publisher.Publish(ctx, user, nil); err != nil {
//	    if rabbit.IsRetryableError(err) {
//	        // try again later
//	    }
//	    return err
//	}
//
// Binding queues to a consistent-hash exchange uses a weight as binding key:
//
//	ch.QueueBind("users-0", "1", "users", false, nil)
//	ch.QueueBind("users-1", "1", "users", false, nil)
//
// The exchange type needs the rabbitmq_consistent_hash_exchange plugin.
package rabbit
