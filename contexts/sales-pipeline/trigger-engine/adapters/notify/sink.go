package notify

import (
	"context"
	"log/slog"

	"adops/contexts/sales-pipeline/trigger-engine/ports"
	"adops/internal/shared/tenant"
)

// LogSink writes notifications to the structured log. It stands in for the
// external notification service, which is out of scope here; the executor
// contract only requires fire-and-forget delivery.
type LogSink struct {
	Logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return LogSink{Logger: logger}
}

func (s LogSink) Send(_ context.Context, tc tenant.Context, notification ports.Notification) error {
	s.Logger.Info("notification dispatched",
		"event", "notification_dispatched",
		"module", "sales-pipeline/trigger-engine",
		"layer", "adapter",
		"org_id", tc.OrgID,
		"recipient_id", notification.RecipientID,
		"subject", notification.Subject,
		"source_event", notification.Event,
		"entity_id", notification.EntityID,
	)
	return nil
}
