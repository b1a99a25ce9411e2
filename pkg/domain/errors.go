package domain

import (
	"errors"
	"fmt"
)

// StepKind tags a step implementation. The set of kinds is closed.
type StepKind string

// ErrAnalysisNotFound is returned when a saved analysis name cannot be found.
var ErrAnalysisNotFound = errors.New("analysis not found")

// ErrNothingToUndo is returned by undo on an empty log.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned by redo when no step was undone.
var ErrNothingToRedo = errors.New("nothing to redo")

// ErrUnknownStepKind is returned when a kind is not part of the registry.
var ErrUnknownStepKind = errors.New("unknown step kind")

// ParameterError is raised while resolving the parameters of a step.
type ParameterError struct {
	Kind   StepKind
	Key    string
	Reason string
	Err    error
}

func (e *ParameterError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: invalid parameters: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: invalid parameter %q: %s", e.Kind, e.Key, e.Reason)
}

func (e *ParameterError) Unwrap() error { return e.Err }

// StepExecutionError is raised when a step cannot be executed against a State,
// either because it references something that does not exist or because the
// underlying computation failed.
type StepExecutionError struct {
	Kind      StepKind
	Reason    string
	Reference string
	Err       error
}

func (e *StepExecutionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	if e.Reference != "" {
		msg += fmt.Sprintf(" (%s)", e.Reference)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StepExecutionError) Unwrap() error { return e.Err }

// ReplayError wraps the single failure that aborted a replay. Its message is
// the same whatever went wrong; the failing step is kept for diagnostics.
type ReplayError struct {
	Analysis  string
	StepIndex int
	Kind      StepKind
	Err       error
}

func (e *ReplayError) Error() string {
	if e.Analysis != "" {
		return fmt.Sprintf("analysis %q could not be replayed", e.Analysis)
	}
	return "analysis could not be replayed"
}

func (e *ReplayError) Unwrap() error { return e.Err }
