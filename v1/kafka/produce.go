package kafka

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/recordkey/v1/record"
)

// Publish derives rec's key, serializes its value and writes one message.
//
// Key derivation errors are wrapped in ErrKeyDerivation; the underlying
// *recordkey.Error stays reachable, so recordkey.IsMissingField and friends
// work on the returned error. Nothing is written when the key cannot be
// derived.
//
// headers are added to the message; with a tracer attached the trace
// context headers are added as well.
func (p *Producer) Publish(ctx context.Context, rec *record.Instance, headers map[string]string) error {
	return p.PublishBatch(ctx, []*record.Instance{rec}, headers)
}

// PublishBatch publishes several records in one write. All keys and values
// are built before anything is written, so one bad record fails the whole
// batch.
func (p *Producer) PublishBatch(ctx context.Context, recs []*record.Instance, headers map[string]string) error {
	if len(recs) == 0 {
		return nil
	}

	if p.tracer != nil {
		var span trace.Span
		ctx, span = p.tracer.StartSpan(ctx, "kafka.publish")
		defer span.End()
		p.tracer.SetAttributes(span, map[string]interface{}{
			"messaging.system":              "kafka",
			"messaging.destination.name":    p.cfg.Topic,
			"messaging.batch.message_count": len(recs),
		})
		headers = mergeHeaders(headers, p.tracer.GetCarrier(ctx))
	}

	msgs := make([]kafka.Message, 0, len(recs))
	var size int64
	for i, rec := range recs {
		msg, err := p.buildMessage(ctx, rec, headers)
		if err != nil {
			if len(recs) > 1 {
				err = fmt.Errorf("record %d: %w", i, err)
			}
			p.recordSpanError(ctx, err)
			return err
		}
		size += int64(len(msg.Key) + len(msg.Value))
		msgs = append(msgs, msg)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, msgs...)
	p.observeOperation("produce", p.cfg.Topic, recs[0].Type().Name(), time.Since(start), err, size, map[string]interface{}{
		"messages": len(msgs),
	})
	if err != nil {
		p.recordSpanError(ctx, err)
		if p.logger != nil {
			p.logger.ErrorWithContext(ctx, "Failed to publish records", err, map[string]interface{}{
				"topic":    p.cfg.Topic,
				"messages": len(msgs),
			})
		}
		return fmt.Errorf("failed to publish to %s: %w", p.cfg.Topic, err)
	}

	if p.logger != nil {
		p.logger.DebugWithContext(ctx, "Published records", nil, map[string]interface{}{
			"topic":    p.cfg.Topic,
			"messages": len(msgs),
			"bytes":    size,
		})
	}
	return nil
}

// buildMessage derives the key and serializes the value of rec.
func (p *Producer) buildMessage(ctx context.Context, rec *record.Instance, headers map[string]string) (kafka.Message, error) {
	typeName := rec.Type().Name()
	keyField := ""
	if cfg := rec.KeyConfig(); cfg != nil {
		keyField = cfg.Field
	}

	start := time.Now()
	key, err := rec.Key()
	p.observeOperation("derive_key", typeName, keyField, time.Since(start), err, int64(len(key)), nil)
	if err != nil {
		if p.logger != nil {
			p.logger.ErrorWithContext(ctx, "Failed to derive message key", err, map[string]interface{}{
				"record":    typeName,
				"key_field": keyField,
			})
		}
		return kafka.Message{}, fmt.Errorf("%w: %s: %w", ErrKeyDerivation, typeName, err)
	}

	value, err := p.serializer.Serialize(rec)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("%w: %s: %w", ErrValueSerialization, typeName, err)
	}

	if p.logger != nil {
		p.logger.DebugWithContext(ctx, "Derived message key", nil, map[string]interface{}{
			"record": typeName,
			"key":    hex.EncodeToString(key),
		})
	}

	return kafka.Message{
		Key:     key,
		Value:   value,
		Headers: toKafkaHeaders(headers),
	}, nil
}

func (p *Producer) recordSpanError(ctx context.Context, err error) {
	if p.tracer == nil {
		return
	}
	p.tracer.RecordErrorOnSpan(trace.SpanFromContext(ctx), err)
}

func mergeHeaders(headers, extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return headers
	}
	merged := make(map[string]string, len(headers)+len(extra))
	for k, v := range headers {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		out = append(out, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}
