package events

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical workflow event shape carried through the outbox
// and the in-process bus. Data holds the event payload as raw JSON so the
// trigger engine can evaluate dot-path conditions without re-marshalling.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OrgID      string          `json:"org_id"`
	ActorID    string          `json:"actor_id"`
	ActorRole  string          `json:"actor_role"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	OccurredAt time.Time       `json:"occurred_at_utc"`
	Data       json.RawMessage `json:"data"`
}

// Workflow event names. The intake surface rejects anything outside this set.
const (
	EventCampaignCreated        = "campaign_created"
	EventScheduleCreated        = "schedule_created"
	EventScheduleValidated      = "schedule_validated"
	EventProbabilityUpdated     = "probability_updated"
	EventInventoryReserved      = "inventory_reserved"
	EventContractGenerated      = "contract_generated"
	EventIOUploaded             = "io_uploaded"
	EventInvoiceGenerated       = "invoice_generated"
	EventRateDeltaDetected      = "rate_delta_detected"
	EventBudgetThresholdCrossed = "budget_threshold_crossed"
	EventFirstSpotBooked        = "first_spot_booked"
	EventCampaignStatusChanged  = "campaign_status_changed"
	EventOrderStatusChanged     = "order_status_changed"
)

// TopicWorkflow is the single bus topic workflow envelopes travel on.
const TopicWorkflow = "workflow.events"

const (
	EntityTypeCampaign = "campaign"
	EntityTypeOrder    = "order"
)

func IsSupportedEvent(name string) bool {
	switch name {
	case EventCampaignCreated,
		EventScheduleCreated,
		EventScheduleValidated,
		EventProbabilityUpdated,
		EventInventoryReserved,
		EventContractGenerated,
		EventIOUploaded,
		EventInvoiceGenerated,
		EventRateDeltaDetected,
		EventBudgetThresholdCrossed,
		EventFirstSpotBooked,
		EventCampaignStatusChanged,
		EventOrderStatusChanged:
		return true
	default:
		return false
	}
}
