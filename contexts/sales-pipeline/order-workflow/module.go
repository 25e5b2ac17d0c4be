package orderworkflow

import (
	"context"
	"log/slog"

	campaignentities "adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	campaignports "adops/contexts/sales-pipeline/campaign-workflow/ports"
	"adops/contexts/sales-pipeline/order-workflow/adapters/memory"
	"adops/contexts/sales-pipeline/order-workflow/application/commands"
	"adops/contexts/sales-pipeline/order-workflow/application/queries"
	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/tenant"
)

type Module struct {
	CreateOrder     commands.CreateOrderUseCase
	TransitionOrder commands.TransitionOrderUseCase
	BulkTransition  commands.BulkTransitionUseCase
	GetOrder        queries.GetOrderUseCase
	ListOrders      queries.ListOrdersUseCase
	GetSlot         queries.GetSlotUseCase

	Store *memory.Store

	deps Dependencies
}

type Dependencies struct {
	Orders    ports.OrderRepository
	History   ports.HistoryRepository
	Packages  ports.PackageRepository
	Inventory ports.InventoryRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		CreateOrder: commands.CreateOrderUseCase{
			Orders:  deps.Orders,
			History: deps.History,
			Outbox:  deps.Outbox,
			Clock:   deps.Clock,
			IDGen:   deps.IDGen,
			Logger:  deps.Logger,
		},
		TransitionOrder: commands.TransitionOrderUseCase{
			Orders:    deps.Orders,
			History:   deps.History,
			Inventory: deps.Inventory,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		BulkTransition: commands.BulkTransitionUseCase{
			Orders:    deps.Orders,
			History:   deps.History,
			Inventory: deps.Inventory,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		GetOrder:   queries.GetOrderUseCase{Orders: deps.Orders},
		ListOrders: queries.ListOrdersUseCase{Orders: deps.Orders},
		GetSlot:    queries.GetSlotUseCase{Inventory: deps.Inventory},
		deps:       deps,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Orders:    store,
		History:   store,
		Packages:  store,
		Inventory: store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}

// Gateway is the seam other modules use. The campaign workflow reaches
// inventory and order-package creation through it, and the trigger engine
// drives order transitions through it, always via the validated commands.
type Gateway struct {
	Module Module
}

func (g Gateway) ReserveSlot(ctx context.Context, tc tenant.Context, campaignID string, key campaignports.SlotKey) (string, error) {
	reservation, err := g.Module.deps.Inventory.ReserveSlot(ctx, tc, campaignID, ports.SlotKey{
		ShowID:        key.ShowID,
		AirDate:       key.AirDate,
		PlacementType: key.PlacementType,
	})
	if err != nil {
		return "", err
	}
	return reservation.ReservationID, nil
}

func (g Gateway) ReleaseReservation(ctx context.Context, tc tenant.Context, reservationID string) error {
	return g.Module.deps.Inventory.ReleaseReservation(ctx, tc, reservationID)
}

// CreateOrderPackage materializes the order, contract and invoice for an
// approved campaign in one transaction.
func (g Gateway) CreateOrderPackage(ctx context.Context, tc tenant.Context, campaign campaignentities.Campaign, actorID string) (campaignports.OrderPackage, error) {
	deps := g.Module.deps
	now := deps.Clock.Now().UTC()

	orderID, err := deps.IDGen.NewID(ctx)
	if err != nil {
		return campaignports.OrderPackage{}, err
	}
	contractID, err := deps.IDGen.NewID(ctx)
	if err != nil {
		return campaignports.OrderPackage{}, err
	}
	invoiceID, err := deps.IDGen.NewID(ctx)
	if err != nil {
		return campaignports.OrderPackage{}, err
	}

	order := entities.Order{
		OrderID:       orderID,
		OrgID:         tc.OrgID,
		CampaignID:    campaign.CampaignID,
		ReservationID: campaign.ReservationID,
		Status:        entities.OrderStatusApproved,
		GrossAmount:   campaign.Budget,
		NetAmount:     campaign.Budget,
		TotalAmount:   campaign.Budget,
		CreatedBy:     actorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	contract := entities.Contract{
		ContractID: contractID,
		OrgID:      tc.OrgID,
		CampaignID: campaign.CampaignID,
		OrderID:    orderID,
		CreatedAt:  now,
	}
	invoice := entities.Invoice{
		InvoiceID: invoiceID,
		OrgID:     tc.OrgID,
		OrderID:   orderID,
		Amount:    campaign.Budget,
		CreatedAt: now,
	}
	if err := deps.Packages.CreateOrderPackage(ctx, tc, order, contract, invoice); err != nil {
		return campaignports.OrderPackage{}, err
	}

	historyID, err := deps.IDGen.NewID(ctx)
	if err != nil {
		return campaignports.OrderPackage{}, err
	}
	if err := deps.History.AppendHistory(ctx, tc, entities.StatusHistory{
		HistoryID: historyID,
		OrgID:     tc.OrgID,
		OrderID:   orderID,
		ToStatus:  entities.OrderStatusApproved,
		ActorID:   actorID,
		Note:      "created by campaign approval",
		CreatedAt: now,
	}); err != nil {
		return campaignports.OrderPackage{}, err
	}

	return campaignports.OrderPackage{
		OrderID:    orderID,
		ContractID: contractID,
		InvoiceID:  invoiceID,
	}, nil
}

// Transition runs a single order transition on behalf of a rule action.
func (g Gateway) Transition(ctx context.Context, tc tenant.Context, orderID, toStatus, actorID, actorRole, note string) error {
	_, err := g.Module.TransitionOrder.Execute(ctx, commands.TransitionOrderCommand{
		Tenant:    tc,
		OrderID:   orderID,
		ToStatus:  entities.OrderStatus(toStatus),
		ActorID:   actorID,
		ActorRole: actorRole,
		Note:      note,
	})
	return err
}
