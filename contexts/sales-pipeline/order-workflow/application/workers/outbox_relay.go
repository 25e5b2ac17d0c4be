package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "adops/contexts/sales-pipeline/order-workflow/application"
	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/events"
)

// OutboxRelay publishes committed order outbox rows to the workflow topic.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = events.TopicWorkflow
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "order_outbox_list_failed",
			"module", "sales-pipeline/order-workflow",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, message := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("outbox payload decode failed",
				"event", "order_outbox_decode_failed",
				"module", "sales-pipeline/order-workflow",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}

		if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("outbox publish failed",
				"event", "order_outbox_publish_failed",
				"module", "sales-pipeline/order-workflow",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_id", envelope.EventID,
				"event_type", envelope.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, message.OutboxID, now); err != nil {
			logger.Error("outbox mark published failed",
				"event", "order_outbox_mark_published_failed",
				"module", "sales-pipeline/order-workflow",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "order_outbox_relay_completed",
			"module", "sales-pipeline/order-workflow",
			"layer", "worker",
			"published_count", len(pending),
		)
	}
	return nil
}
