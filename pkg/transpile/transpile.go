package transpile

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/registry"
	"github.com/aretw0/stepsheet/pkg/steps"
)

const (
	pandasImport  = "import pandas as pd"
	helpersImport = "from mitosheet.public.v3 import *"
)

// helperFunctions are emitted by conversions and live in helpersImport.
var helperFunctions = []string{"to_boolean_series(", "to_number_series("}

// Script is the generated code for one log.
type Script struct {
	Imports []string
	Lines   []string
}

// String renders the imports, a blank line, then the lines. An empty
// script renders as the empty string.
func (s Script) String() string {
	if len(s.Lines) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, imp := range s.Imports {
		sb.WriteString(imp)
		sb.WriteByte('\n')
	}
	if len(s.Imports) > 0 {
		sb.WriteByte('\n')
	}
	for _, line := range s.Lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// IsEmpty reports whether the log generated no code.
func (s Script) IsEmpty() bool { return len(s.Lines) == 0 }

type config struct {
	comments bool
}

// Option configures Transpile.
type Option func(*config)

// WithComments prefixes each step's lines with its description, and notes
// how many values a conversion could not convert.
func WithComments(enabled bool) Option {
	return func(c *config) {
		c.comments = enabled
	}
}

// Transpile returns the script for log. Steps that generate no lines, such
// as a conversion to a column's own type, leave no trace in it.
func Transpile(reg *registry.Registry, log []*steps.Step, opts ...Option) (Script, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var script Script
	for i, step := range log {
		perf, err := reg.Lookup(step.Kind)
		if err != nil {
			return Script{}, fmt.Errorf("step %d: %w", i, err)
		}
		lines := perf.Transpile(step.Prev, step.Post, step.Exec, step.Params)

		for _, r := range step.Refreshes {
			if r.StepIndex < 0 || r.StepIndex >= i {
				return Script{}, fmt.Errorf("step %d: refresh of step %d out of order", i, r.StepIndex)
			}
			derived := log[r.StepIndex]
			dp, err := reg.Lookup(derived.Kind)
			if err != nil {
				return Script{}, fmt.Errorf("step %d: %w", r.StepIndex, err)
			}
			deriver, ok := dp.(steps.Deriver)
			if !ok {
				return Script{}, fmt.Errorf("step %d: %s does not derive a column", r.StepIndex, derived.Kind)
			}
			lines = append(lines, deriver.TranspileRecompute(r.Post, r.Exec, derived.Params)...)
		}
		if len(lines) == 0 {
			continue
		}

		if cfg.comments {
			script.Lines = append(script.Lines, "# "+perf.Describe(step.Params, step.Post.Names))
			if c := step.Exec.Coercion; c != nil && c.Failed > 0 {
				script.Lines = append(script.Lines, failureComment(c))
			}
		}
		script.Lines = append(script.Lines, lines...)
	}

	script.Imports = imports(script.Lines)
	return script, nil
}

func failureComment(c *domain.Coercion) string {
	noun := "values"
	if c.Failed == 1 {
		noun = "value"
	}
	return fmt.Sprintf("# %d %s could not be converted from %s to %s", c.Failed, noun, c.From, c.To)
}

func imports(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := []string{pandasImport}
	for _, line := range lines {
		for _, fn := range helperFunctions {
			if strings.Contains(line, fn) {
				return append(out, helpersImport)
			}
		}
	}
	return out
}
