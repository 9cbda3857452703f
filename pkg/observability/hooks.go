package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/deploykit/pkg/domain"
)

// LoggingHooks writes lifecycle events to logger.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(_ context.Context, e *domain.StateEvent) {
			if e.From == e.To {
				return
			}
			logger.Debug("state_change", "session_id", e.SessionID, "from", e.From, "to", e.To, "progress", e.Progress)
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			if !e.Done {
				logger.Debug("step_start", "session_id", e.SessionID, "step", e.Step)
				return
			}
			logger.Debug("step_done", "session_id", e.SessionID, "step", e.Step, "duration", e.Duration, "is_error", e.IsError)
		},
		OnPoll: func(_ context.Context, e *domain.PollEvent) {
			logger.Debug("poll", "session_id", e.SessionID, "step", e.Step, "iteration", e.Iteration, "status", e.Status)
		},
		OnSettle: func(_ context.Context, o *domain.Outcome) {
			attrs := []any{"session_id", o.SessionID, "status", o.Status, "elapsed", o.Elapsed}
			if o.TransactionID != "" {
				attrs = append(attrs, "tx_id", o.TransactionID)
			}
			if o.Failure != nil {
				logger.Warn("deployment_settled", append(attrs, "kind", o.Failure.Kind, "reason", o.Failure.Reason)...)
				return
			}
			logger.Info("deployment_settled", attrs...)
		},
	}
}

// Combine fans every event out to each set of hooks in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(ctx context.Context, e *domain.StateEvent) {
			for _, h := range all {
				if h.OnStateChange != nil {
					h.OnStateChange(ctx, e)
				}
			}
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range all {
				if h.OnStep != nil {
					h.OnStep(ctx, e)
				}
			}
		},
		OnPoll: func(ctx context.Context, e *domain.PollEvent) {
			for _, h := range all {
				if h.OnPoll != nil {
					h.OnPoll(ctx, e)
				}
			}
		},
		OnSettle: func(ctx context.Context, o *domain.Outcome) {
			for _, h := range all {
				if h.OnSettle != nil {
					h.OnSettle(ctx, o)
				}
			}
		},
	}
}
