package schema

import "sort"

// Schema is a map of parameter names to their expected types.
// Example: {"join": Enum("inner", "outer"), "datasetIndexes": NonEmptySlice(Int())}
type Schema map[string]Type

// Keys returns the parameter names in sorted order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks if data conforms to the schema. Keys the schema does not
// declare are rejected. All failures are returned together, ordered by key.
func Validate(schema Schema, data map[string]any) error {
	var errs []error

	for _, key := range schema.Keys() {
		fieldType := schema[key]
		value, exists := data[key]
		if !exists {
			if _, optional := fieldType.(*OptionalType); !optional {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	unknown := make([]string, 0)
	for key := range data {
		if _, ok := schema[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, &ValidationError{Key: key, Reason: "unknown parameter"})
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
