// Package schema_registry provides integration with Confluent Schema Registry.
//
// Producers of keyed messages use it for two things: finding the schema ID
// that frames a topic's keys or values, and writing or reading the Confluent
// wire header around a payload.
//
// Core Features:
//   - HTTP client for Confluent Schema Registry
//   - Schema registration and retrieval with caching
//   - Compatibility checking for schema evolution
//   - Confluent wire format encoding/decoding
//
// Basic Usage:
//
//	import "github.com/Aleph-Alpha/recordkey/v1/schema_registry"
//
//	registry, err := schema_registry.NewClient(schema_registry.Config{
//	    URL:     "http://localhost:8081",
//	    Timeout: 10 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register the key schema of a topic
//	id, err := registry.RegisterSchema(ctx, schema_registry.KeySubject("users"), `"string"`, "AVRO")
//
//	// Look up the latest one
//	meta, err := registry.GetLatestSchema(ctx, schema_registry.KeySubject("users"))
//	if schema_registry.IsNotFoundError(err) {
//	    // subject was never registered
//	}
//
// Using with FX:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Provide(func() schema_registry.Config {
//	        return schema_registry.Config{URL: os.Getenv("SCHEMA_REGISTRY_URL")}
//	    }),
//	)
//
// Wire Format:
//
//	[magic_byte (1 byte)] [schema_id (4 bytes, big-endian)] [payload]
//
// The magic byte is always 0x0. EncodeSchemaID writes the 5-byte header and
// DecodeSchemaID splits it off again.
//
// Schema Caching:
//
// Schemas are cached by ID and registered IDs by subject and schema.
// GetLatestSchema is never served from cache since a new version may be
// registered at any time. Caches are safe for concurrent use.
package schema_registry
