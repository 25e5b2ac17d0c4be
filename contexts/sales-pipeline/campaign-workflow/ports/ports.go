package ports

import (
	"context"
	"time"

	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

type CampaignFilter struct {
	Status       entities.CampaignStatus
	AdvertiserID string
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, tc tenant.Context, campaign entities.Campaign) error
	UpdateCampaign(ctx context.Context, tc tenant.Context, campaign entities.Campaign) error
	GetCampaign(ctx context.Context, tc tenant.Context, campaignID string) (entities.Campaign, error)
	ListCampaigns(ctx context.Context, tc tenant.Context, filter CampaignFilter) ([]entities.Campaign, error)
}

type ApprovalRepository interface {
	CreateApproval(ctx context.Context, tc tenant.Context, approval entities.Approval) error
	UpdateApproval(ctx context.Context, tc tenant.Context, approval entities.Approval) error
	GetApproval(ctx context.Context, tc tenant.Context, approvalID string) (entities.Approval, error)
}

type ActivityRepository interface {
	AppendActivity(ctx context.Context, tc tenant.Context, item entities.ActivityLog) error
}

type SettingsRepository interface {
	// GetPipelineSettings returns tenant workflow settings, falling back to
	// defaults when the tenant has never written any.
	GetPipelineSettings(ctx context.Context, tc tenant.Context) (entities.PipelineSettings, error)
}

// SlotKey identifies one sellable inventory unit.
type SlotKey struct {
	ShowID        string
	AirDate       string
	PlacementType string
}

// InventoryGateway delegates slot mutations to the order workflow, which owns
// the counters. Each call is a single atomic paired increment/decrement.
type InventoryGateway interface {
	ReserveSlot(ctx context.Context, tc tenant.Context, campaignID string, key SlotKey) (string, error)
	ReleaseReservation(ctx context.Context, tc tenant.Context, reservationID string) error
}

// OrderPackage is the downstream record set created by campaign approval.
type OrderPackage struct {
	OrderID    string
	ContractID string
	InvoiceID  string
}

// OrderPackageCreator creates the Order, Contract and initial Invoice for an
// approved campaign in one atomic unit. Implementations either commit all
// three or none; the approval command aborts on error.
type OrderPackageCreator interface {
	CreateOrderPackage(ctx context.Context, tc tenant.Context, campaign entities.Campaign, actorID string) (OrderPackage, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
