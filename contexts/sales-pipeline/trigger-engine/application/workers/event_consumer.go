package workers

import (
	"context"
	"log/slog"
	"sync"

	application "adops/contexts/sales-pipeline/trigger-engine/application"
	"adops/contexts/sales-pipeline/trigger-engine/application/commands"
	"adops/contexts/sales-pipeline/trigger-engine/ports"
	"adops/internal/shared/events"
)

// EventConsumer subscribes to the workflow topic and runs rule evaluation for
// every delivered event. Deliveries are processed one at a time so rule side
// effects keep their per-event ordering; the execution-log key absorbs
// at-least-once re-deliveries.
type EventConsumer struct {
	Source        ports.EventSource
	Evaluate      commands.EvaluateEventUseCase
	ConsumerGroup string
	Logger        *slog.Logger

	mu sync.Mutex
}

func (c *EventConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = "trigger-engine-cg"
	}
	return c.Source.Subscribe(ctx, events.TopicWorkflow, group, c.handle)
}

func (c *EventConsumer) handle(ctx context.Context, event events.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Evaluate.Execute(ctx, event); err != nil {
		application.ResolveLogger(c.Logger).Error("event evaluation failed",
			"event", "trigger_evaluation_failed",
			"module", "sales-pipeline/trigger-engine",
			"layer", "worker",
			"org_id", event.OrgID,
			"event_type", event.EventType,
			"entity_id", event.EntityID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}
