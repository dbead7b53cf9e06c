// Package keyserde provides ready-made custom key serializers.
//
// The key engine only knows two default encodings: UTF-8 for text fields and
// identity for byte fields. Everything else needs a recordkey.Serializer. The
// serializers here cover the conventions seen on Kafka topics:
//
//   - WireFormat: Confluent framing, [0x00][4-byte big-endian id][payload]
//   - CBOR: canonical CBOR for structured keys (lists, maps, nested records)
//   - Registry: WireFormat bound to the latest schema ID of a registry subject
//
// Basic Usage:
//
//	userType := record.MustType("User",
//	    []record.Field{{Name: "_id", Type: recordkey.String}},
//	    record.WithKey("_id"),
//	    record.WithKeySerializer(keyserde.WireFormat(42, nil)),
//	)
//
// All serializers are closures over their configuration and are safe for
// concurrent use.
package keyserde
