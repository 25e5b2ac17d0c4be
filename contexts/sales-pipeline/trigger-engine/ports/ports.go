package ports

import (
	"context"
	"time"

	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

type TriggerRepository interface {
	SaveTrigger(ctx context.Context, tc tenant.Context, trigger entities.Trigger) error
	GetTrigger(ctx context.Context, tc tenant.Context, triggerID string) (entities.Trigger, error)
	ListTriggers(ctx context.Context, tc tenant.Context) ([]entities.Trigger, error)
	// ListEnabledByEvent returns the enabled rules registered for an event
	// name, unordered; the evaluator owns the priority sort.
	ListEnabledByEvent(ctx context.Context, tc tenant.Context, event string) ([]entities.Trigger, error)
	// RecordExecution bumps the counter and last-executed timestamp.
	RecordExecution(ctx context.Context, tc tenant.Context, triggerID string, executedAt time.Time) error
}

// ExecutionLogStore is append-only. AppendExecution enforces the unique
// (org, trigger, entity, event) key and reports ErrExecutionExists on a
// duplicate, which is the engine's entire duplicate defense.
type ExecutionLogStore interface {
	HasExecution(ctx context.Context, tc tenant.Context, triggerID, entityType, entityID, event string) (bool, error)
	AppendExecution(ctx context.Context, tc tenant.Context, execution entities.Execution) error
	ListExecutions(ctx context.Context, tc tenant.Context, triggerID string) ([]entities.Execution, error)
}

// RuleCache fronts TriggerRepository.ListEnabledByEvent with a per-tenant TTL.
// Configuration writes call Invalidate synchronously before returning.
type RuleCache interface {
	GetEnabledByEvent(ctx context.Context, tc tenant.Context, event string) ([]entities.Trigger, error)
	Invalidate(orgID string)
}

type CampaignGateway interface {
	ChangeProbability(ctx context.Context, tc tenant.Context, campaignID, operation string, value int, actorID string) (int, error)
	CreateReservation(ctx context.Context, tc tenant.Context, campaignID, showID, airDate, placementType, actorID string) (string, error)
	RequestApproval(ctx context.Context, tc tenant.Context, campaignID string, requiredRoles []string, actorID string) (string, error)
	TransitionStatus(ctx context.Context, tc tenant.Context, campaignID, toStatus, actorID, note string) error
}

type OrderGateway interface {
	Transition(ctx context.Context, tc tenant.Context, orderID, toStatus, actorID, actorRole, note string) error
}

// Directory resolves role names to user ids for notification fan-out.
type Directory interface {
	UsersByRole(ctx context.Context, tc tenant.Context, role string) ([]string, error)
}

type Notification struct {
	RecipientID string
	Subject     string
	Body        string
	Event       string
	EntityID    string
}

// NotificationSink is fire-and-forget; per-recipient delivery failures are
// not modeled.
type NotificationSink interface {
	Send(ctx context.Context, tc tenant.Context, notification Notification) error
}

type WebhookClient interface {
	Deliver(ctx context.Context, url, secret string, body []byte) error
}

type EventEnvelope = events.Envelope

// EventSource registers a handler for a topic. The in-process bus and any
// future broker adapter both satisfy it; handlers on one subscription run
// sequentially.
type EventSource interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
