package domain

// StepRecord is the persisted form of one applied step.
type StepRecord struct {
	Kind    StepKind       `json:"kind" yaml:"kind"`
	Version int            `json:"version" yaml:"version"`
	Params  map[string]any `json:"params" yaml:"params"`
}

// Analysis is a named, ordered log of step records. Replaying it from the
// same initial datasets reproduces the same State and the same script.
type Analysis struct {
	Name  string       `json:"name" yaml:"name"`
	Steps []StepRecord `json:"steps" yaml:"steps"`
}
