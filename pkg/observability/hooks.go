package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// LoggingHooks logs every lifecycle event on logger.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepApplied: func(ctx context.Context, e *domain.StepEvent) {
			attrs := []any{"index", e.Index, "kind", e.Kind, "duration", e.Duration}
			if e.Coercion != nil {
				attrs = append(attrs, "from", e.Coercion.From, "to", e.Coercion.To, "failed", e.Coercion.Failed)
			}
			logger.InfoContext(ctx, "step_applied", attrs...)
		},
		OnStepFailed: func(ctx context.Context, e *domain.StepEvent) {
			logger.WarnContext(ctx, "step_failed", "index", e.Index, "kind", e.Kind, "phase", e.Phase, "err", e.Err)
		},
		OnReplay: func(ctx context.Context, e *domain.ReplayEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "replay", "analysis", e.Analysis, "steps", e.Steps, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "replay", "analysis", e.Analysis, "steps", e.Steps, "duration", e.Duration)
		},
		OnHistory: func(ctx context.Context, e *domain.HistoryEvent) {
			logger.InfoContext(ctx, string(e.Type), "steps", e.Steps)
		},
	}
}

// Chain returns hooks that call each of hooks in order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepApplied: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepApplied != nil {
					h.OnStepApplied(ctx, e)
				}
			}
		},
		OnStepFailed: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range hooks {
				if h.OnStepFailed != nil {
					h.OnStepFailed(ctx, e)
				}
			}
		},
		OnReplay: func(ctx context.Context, e *domain.ReplayEvent) {
			for _, h := range hooks {
				if h.OnReplay != nil {
					h.OnReplay(ctx, e)
				}
			}
		},
		OnHistory: func(ctx context.Context, e *domain.HistoryEvent) {
			for _, h := range hooks {
				if h.OnHistory != nil {
					h.OnHistory(ctx, e)
				}
			}
		},
	}
}
