package rabbit

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/recordkey/v1/record"
)

// Headers set on every published message.
const (
	// KeyHeader carries the raw key bytes; the routing key is their hex form.
	KeyHeader = "x-record-key"

	// TypeHeader carries the full name of the record type.
	TypeHeader = "x-record-type"
)

// maxRoutingKeyLength is the AMQP limit for short strings.
const maxRoutingKeyLength = 255

// RoutingKey returns the routing key used for a derived message key.
func RoutingKey(key []byte) (string, error) {
	if hex.EncodedLen(len(key)) > maxRoutingKeyLength {
		return "", fmt.Errorf("%w: %d key bytes", ErrRoutingKeyTooLong, len(key))
	}
	return hex.EncodeToString(key), nil
}

// Publish derives rec's key, serializes its value and publishes it to the
// configured exchange, waiting for the broker's confirm.
//
// Key derivation errors are wrapped in ErrKeyDerivation with the
// *recordkey.Error still in the chain. Nothing is published for a record
// whose key cannot be derived.
func (p *Publisher) Publish(ctx context.Context, rec *record.Instance, headers map[string]interface{}) error {
	if p.tracer == nil {
		return p.publishRecord(ctx, rec, headers)
	}

	ctx, span := p.tracer.StartSpan(ctx, "rabbit.publish")
	defer span.End()
	p.tracer.SetAttributes(span, map[string]interface{}{
		"messaging.system":           "rabbitmq",
		"messaging.destination.name": p.cfg.Exchange.Name,
		"record.type":                rec.Type().FullName(),
	})

	carrier := p.tracer.GetCarrier(ctx)
	if len(carrier) > 0 {
		merged := make(map[string]interface{}, len(headers)+len(carrier))
		for k, v := range headers {
			merged[k] = v
		}
		for k, v := range carrier {
			merged[k] = v
		}
		headers = merged
	}

	err := p.publishRecord(ctx, rec, headers)
	if err != nil {
		p.tracer.RecordErrorOnSpan(span, err)
	}
	return err
}

func (p *Publisher) publishRecord(ctx context.Context, rec *record.Instance, headers map[string]interface{}) error {
	typeName := rec.Type().Name()

	start := time.Now()
	key, err := rec.Key()
	p.observeOperation("derive_key", typeName, keyField(rec), time.Since(start), err, int64(len(key)))
	if err != nil {
		if p.logger != nil {
			p.logger.ErrorWithContext(ctx, "Failed to derive message key", err, map[string]interface{}{
				"record": typeName,
			})
		}
		return fmt.Errorf("%w: %s: %w", ErrKeyDerivation, typeName, err)
	}

	routingKey, err := RoutingKey(key)
	if err != nil {
		return fmt.Errorf("%s: %w", typeName, err)
	}

	body, err := p.serializer.Serialize(rec)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrValueSerialization, typeName, err)
	}

	msg := amqp.Publishing{
		Headers:      messageHeaders(headers, key, rec.Type().FullName()),
		ContentType:  p.cfg.Exchange.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}

	start = time.Now()
	err = p.publish(ctx, routingKey, msg)
	p.observeOperation("produce", p.cfg.Exchange.Name, typeName, time.Since(start), err, int64(len(body)))
	if err != nil {
		if p.logger != nil {
			p.logger.ErrorWithContext(ctx, "Failed to publish record", err, map[string]interface{}{
				"exchange":    p.cfg.Exchange.Name,
				"record":      typeName,
				"routing_key": routingKey,
			})
		}
		return fmt.Errorf("failed to publish to %s: %w", p.cfg.Exchange.Name, err)
	}

	if p.logger != nil {
		p.logger.DebugWithContext(ctx, "Published record", nil, map[string]interface{}{
			"exchange":    p.cfg.Exchange.Name,
			"routing_key": routingKey,
			"bytes":       len(body),
		})
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx,
		p.cfg.Exchange.Name,
		routingKey,
		p.cfg.Exchange.Mandatory,
		false, // Immediate
		msg,
	)
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	// nil when the channel is not in confirm mode
	if confirm == nil {
		return nil
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return ErrNotAcknowledged
	}
	return nil
}

func keyField(rec *record.Instance) string {
	if cfg := rec.KeyConfig(); cfg != nil {
		return cfg.Field
	}
	return ""
}

func messageHeaders(extra map[string]interface{}, key []byte, typeName string) amqp.Table {
	headers := make(amqp.Table, len(extra)+2)
	for k, v := range extra {
		headers[k] = v
	}
	headers[KeyHeader] = key
	headers[TypeHeader] = typeName
	return headers
}
