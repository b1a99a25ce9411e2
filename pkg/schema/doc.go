// Package schema validates the raw parameter maps handed to steps.
//
// Parameters arrive as map[string]any from an outer layer (a UI, a JSON file,
// a YAML analysis). A Schema declares which keys a step kind accepts and what
// each must hold; Validate reports every problem at once.
//
//	s := schema.Schema{
//	    "join":           schema.Enum("inner", "outer"),
//	    "resetIndex":     schema.Optional(schema.Bool()),
//	    "datasetIndexes": schema.NonEmptySlice(schema.Int()),
//	}
//
//	if err := schema.Validate(s, params); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // ...
//	    }
//	}
//
// Ints decoded from JSON arrive as float64 and are accepted when whole.
package schema
