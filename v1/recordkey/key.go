package recordkey

// Derive computes the key of src: Resolve followed by Encode with the
// configured serializer. Errors from either step are returned unchanged.
//
// The result is computed on every call.
func Derive(src Source) ([]byte, error) {
	field, value, err := Resolve(src)
	if err != nil {
		return nil, err
	}

	return Encode(field, value, src.KeyConfig().Serializer)
}

// MustDerive is like Derive but panics on error. It is meant for tests and
// static fixtures whose configuration is known to be valid.
func MustDerive(src Source) []byte {
	key, err := Derive(src)
	if err != nil {
		panic(err)
	}
	return key
}
