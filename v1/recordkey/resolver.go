package recordkey

// Resolve locates the configured key field of src and returns its declared
// field together with the instance's current value for it.
//
// The declared type comes from src.Fields(), never from the runtime value.
// A field that is declared but holds no value resolves to a nil value.
func Resolve(src Source) (Field, any, error) {
	cfg := src.KeyConfig()
	if cfg == nil || cfg.Field == "" {
		return Field{}, nil, &Error{Kind: Unconfigured}
	}

	for _, field := range src.Fields() {
		if field.Name != cfg.Field {
			continue
		}
		value, _ := src.Value(field.Name)
		return field, value, nil
	}

	return Field{}, nil, &Error{Kind: MissingField, Field: cfg.Field}
}
