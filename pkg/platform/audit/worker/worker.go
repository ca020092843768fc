package worker

import (
	"context"
	"log/slog"

	audit "ghostpost/pkg/platform/audit"
)

// Worker persists audit events and forwards them to sinks. Run drains a
// channel in the background; Handle is the same delivery done inline.
type Worker struct {
	store  audit.Store
	sinks  []audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger, sinks ...audit.Sink) *Worker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Worker{store: store, sinks: sinks, inbox: inbox, logger: logger}
}

// Run consumes the inbox until it is closed or ctx ends. Delivery failures
// are logged and do not stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.Handle(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"event_type", string(event.Type),
					"error", err,
				)
			}
		}
	}
}

// Handle stores one event and fans it out. A store failure is returned and
// skips the sinks; sink failures are only logged.
func (w *Worker) Handle(ctx context.Context, event audit.Event) error {
	if err := w.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range w.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			w.logger.WarnContext(ctx, "audit sink publish failed",
				"event_type", string(event.Type),
				"error", err,
			)
		}
	}
	return nil
}
