// Package recordkey derives message keys from record instances.
//
// A record type declares, at most once, which of its fields is the key and
// optionally how that field's value is turned into bytes. The package resolves
// the configured field against the type's declared fields and encodes the
// field's current value. Nothing is cached: every call recomputes the key from
// the instance it is given.
//
// Core Features:
//   - Lazy validation of the configured key field name
//   - Default encodings for text (UTF-8) and raw bytes (identity)
//   - Caller-supplied serializers that take precedence over the defaults
//   - A single tagged error type distinguishing configuration errors from type errors
//
// Basic Usage:
//
//	import "github.com/Aleph-Alpha/recordkey/v1/recordkey"
//
//	// src is any recordkey.Source, for example a *record.Instance
//	key, err := recordkey.Derive(src)
//	if err != nil {
//	    switch {
//	    case recordkey.IsUnconfigured(err):
//	        // the record type never declared a key field
//	    case recordkey.IsMissingField(err):
//	        // the declared key field does not exist
//	    case recordkey.IsUnencodable(err):
//	        // no default encoding and no custom serializer
//	    }
//	    return err
//	}
//
// Custom Serializers:
//
// Serializers receive exactly one argument, the key field's value. Any extra
// parameters are bound in a closure when the configuration is written:
//
//	func wireFormat(version uint32) recordkey.Serializer {
//	    return func(value any) ([]byte, error) {
//	        buf := []byte{0}
//	        buf = binary.BigEndian.AppendUint32(buf, version)
//	        return append(buf, value.(string)...), nil
//	    }
//	}
//
//	cfg := recordkey.Config{Field: "_id", Serializer: wireFormat(42)}
//
// The serializer's output is returned verbatim; the package does not inspect it.
//
// Thread Safety:
//
// All functions are pure and safe for concurrent use, provided the Source and
// the configured Serializer are.
package recordkey
