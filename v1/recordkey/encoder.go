package recordkey

// Encode turns the value of a resolved key field into key bytes.
//
// A non-nil serializer wins over the default table and its result, error
// included, is returned as is. Without one, String fields are encoded as
// UTF-8 and Bytes fields are returned unchanged. Every other declared type,
// and any value whose Go type does not match its declaration, fails with an
// UnencodableType *Error naming the value's runtime type.
func Encode(field Field, value any, serializer Serializer) ([]byte, error) {
	if serializer != nil {
		return serializer(value)
	}

	switch field.Type {
	case String:
		if s, ok := value.(string); ok {
			return []byte(s), nil
		}
	case Bytes:
		if b, ok := value.([]byte); ok {
			return b, nil
		}
	}

	return nil, unencodable(field.Name, value)
}
