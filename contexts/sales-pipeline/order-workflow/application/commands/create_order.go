package commands

import (
	"context"
	"log/slog"
	"strings"

	application "adops/contexts/sales-pipeline/order-workflow/application"
	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/order-workflow/domain/errors"
	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

type CreateOrderCommand struct {
	Tenant      tenant.Context
	CampaignID  string
	GrossAmount float64
	Commission  float64
	ActorID     string
}

type CreateOrderResult struct {
	Order entities.Order
}

type CreateOrderUseCase struct {
	Orders  ports.OrderRepository
	History ports.HistoryRepository
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func (uc CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return CreateOrderResult{}, err
	}
	if cmd.GrossAmount < 0 || cmd.Commission < 0 || cmd.Commission > cmd.GrossAmount {
		return CreateOrderResult{}, domainerrors.ErrInvalidOrderInput
	}

	now := uc.Clock.Now().UTC()
	orderID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateOrderResult{}, err
	}
	order := entities.Order{
		OrderID:     orderID,
		OrgID:       cmd.Tenant.OrgID,
		CampaignID:  strings.TrimSpace(cmd.CampaignID),
		Status:      entities.OrderStatusDraft,
		GrossAmount: cmd.GrossAmount,
		Commission:  cmd.Commission,
		NetAmount:   cmd.GrossAmount - cmd.Commission,
		TotalAmount: cmd.GrossAmount,
		CreatedBy:   strings.TrimSpace(cmd.ActorID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Orders.CreateOrder(ctx, cmd.Tenant, order); err != nil {
		return CreateOrderResult{}, err
	}

	historyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if err := uc.History.AppendHistory(ctx, cmd.Tenant, entities.StatusHistory{
		HistoryID: historyID,
		OrgID:     cmd.Tenant.OrgID,
		OrderID:   orderID,
		ToStatus:  entities.OrderStatusDraft,
		ActorID:   strings.TrimSpace(cmd.ActorID),
		CreatedAt: now,
	}); err != nil {
		return CreateOrderResult{}, err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateOrderResult{}, err
	}
	envelope, err := newOrderEnvelope(eventID, events.EventOrderStatusChanged, cmd.Tenant, orderID, cmd.ActorID, "", now, map[string]any{
		"order": map[string]any{
			"order_id":    orderID,
			"campaign_id": order.CampaignID,
			"status":      string(order.Status),
			"gross":       order.GrossAmount,
			"net":         order.NetAmount,
			"commission":  order.Commission,
			"total":       order.TotalAmount,
		},
	})
	if err != nil {
		return CreateOrderResult{}, err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return CreateOrderResult{}, err
	}

	logger.Info("order created",
		"event", "order_created",
		"module", "sales-pipeline/order-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"order_id", orderID,
	)
	return CreateOrderResult{Order: order}, nil
}
