package commands

import (
	"encoding/json"
	"time"

	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

func newOrderEnvelope(
	eventID string,
	eventType string,
	tc tenant.Context,
	orderID string,
	actorID string,
	actorRole string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:    eventID,
		EventType:  eventType,
		OrgID:      tc.OrgID,
		ActorID:    actorID,
		ActorRole:  actorRole,
		EntityType: events.EntityTypeOrder,
		EntityID:   orderID,
		OccurredAt: occurredAt.UTC(),
		Data:       payload,
	}, nil
}
