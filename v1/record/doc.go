// Package record is the record model behind key derivation.
//
// A Type is a named, ordered set of declared fields plus an optional key
// configuration. Its field index is built once, by NewType, and the type is
// immutable afterwards. An Instance holds one value per field and implements
// recordkey.Source, so its Key method can derive the message key without
// any reflection over the values.
//
// Besides keys, the package covers what producers need around them:
//   - Fake builds synthetic instances for tests and fixtures
//   - AvroSchema, MarshalAvro and DecodeAvro handle the record's value
//   - LoadDefinitions reads types from YAML
//
// Basic Usage:
//
//	userType, err := record.NewType("User",
//	    []record.Field{
//	        {Name: "_id", Type: recordkey.String},
//	        {Name: "tags", Type: recordkey.Array, Items: recordkey.String},
//	    },
//	    record.WithKey("_id"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	user, err := userType.New(map[string]any{"_id": "abc", "tags": []string{"admin"}})
//	if err != nil {
//	    return err
//	}
//
//	key, err := user.Key() // []byte("abc")
//
// The key field name given to WithKey is only checked when Key is called;
// a typo shows up as recordkey's MissingField error at that point.
package record
