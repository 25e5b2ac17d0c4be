package ports

import (
	"context"
	"time"

	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

type OrderFilter struct {
	CampaignID string
	Status     entities.OrderStatus
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, tc tenant.Context, order entities.Order) error
	UpdateOrder(ctx context.Context, tc tenant.Context, order entities.Order) error
	GetOrder(ctx context.Context, tc tenant.Context, orderID string) (entities.Order, error)
	ListOrders(ctx context.Context, tc tenant.Context, filter OrderFilter) ([]entities.Order, error)
	CountOrders(ctx context.Context, tc tenant.Context, filter OrderFilter) (int, error)
}

type HistoryRepository interface {
	AppendHistory(ctx context.Context, tc tenant.Context, item entities.StatusHistory) error
}

type SlotKey struct {
	ShowID        string
	AirDate       string
	PlacementType string
}

// InventoryRepository owns the slot counters. Every mutation is one atomic
// paired increment/decrement so available+reserved+booked==total holds under
// concurrent transitions on the same slot.
type InventoryRepository interface {
	PutSlot(ctx context.Context, tc tenant.Context, slot entities.SlotCounter) error
	GetSlot(ctx context.Context, tc tenant.Context, key SlotKey) (entities.SlotCounter, error)
	ReserveSlot(ctx context.Context, tc tenant.Context, campaignID string, key SlotKey) (entities.Reservation, error)
	CommitReservation(ctx context.Context, tc tenant.Context, reservationID string) error
	ReleaseReservation(ctx context.Context, tc tenant.Context, reservationID string) error
	GetReservation(ctx context.Context, tc tenant.Context, reservationID string) (entities.Reservation, error)
}

// PackageRepository persists an order together with its contract and invoice
// in a single transaction. Either all three rows land or none do.
type PackageRepository interface {
	CreateOrderPackage(ctx context.Context, tc tenant.Context, order entities.Order, contract entities.Contract, invoice entities.Invoice) error
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
