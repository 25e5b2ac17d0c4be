package commands

import (
	"encoding/json"
	"time"

	"adops/contexts/sales-pipeline/campaign-workflow/ports"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

func newCampaignEnvelope(
	eventID string,
	eventType string,
	tc tenant.Context,
	campaignID string,
	actorID string,
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
		EntityType: events.EntityTypeCampaign,
		EntityID:   campaignID,
		OccurredAt: occurredAt.UTC(),
		Data:       payload,
	}, nil
}
