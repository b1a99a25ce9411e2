package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepApplied EventType = "step_applied"
	EventStepFailed  EventType = "step_failed"
	EventReplay      EventType = "replay"
	EventUndo        EventType = "undo"
	EventRedo        EventType = "redo"
	EventClear       EventType = "clear"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// Coercion summarises one column conversion performed by a step.
type Coercion struct {
	From   LogicalType `json:"from"`
	To     LogicalType `json:"to"`
	Failed int         `json:"failed"`
}

// StepEvent reports the outcome of applying one step.
type StepEvent struct {
	EventBase
	Index    int           `json:"index"`
	Kind     StepKind      `json:"kind"`
	Phase    string        `json:"phase,omitempty"`
	Duration time.Duration `json:"duration"`
	Coercion *Coercion     `json:"coercion,omitempty"`
	Err      error         `json:"-"`
}

// ReplayEvent reports the outcome of a whole replay.
type ReplayEvent struct {
	EventBase
	Analysis string        `json:"analysis,omitempty"`
	Steps    int           `json:"steps"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// HistoryEvent reports an undo, redo or clear.
type HistoryEvent struct {
	EventBase
	Steps int `json:"steps"`
}

// LifecycleHooks defines callbacks for session observability.
type LifecycleHooks struct {
	OnStepApplied func(context.Context, *StepEvent)
	OnStepFailed  func(context.Context, *StepEvent)
	OnReplay      func(context.Context, *ReplayEvent)
	OnHistory     func(context.Context, *HistoryEvent)
}
