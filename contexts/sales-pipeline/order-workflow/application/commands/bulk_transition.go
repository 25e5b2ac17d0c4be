package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "adops/contexts/sales-pipeline/order-workflow/application"
	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/tenant"
)

type BulkTransitionCommand struct {
	Tenant    tenant.Context
	OrderIDs  []string
	ToStatus  entities.OrderStatus
	ActorID   string
	ActorRole string
	Note      string
}

type BulkTransitionResult struct {
	Transitioned []TransitionOrderResult
}

// BulkTransitionUseCase applies one transition to a batch of orders. The
// transition-table and role checks run against every member first; a single
// failure rejects the whole batch before any mutation. Inventory updates
// inside an accepted batch are best-effort and logged on failure.
type BulkTransitionUseCase struct {
	Orders    ports.OrderRepository
	History   ports.HistoryRepository
	Inventory ports.InventoryRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc BulkTransitionUseCase) Execute(ctx context.Context, cmd BulkTransitionCommand) (BulkTransitionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return BulkTransitionResult{}, err
	}

	orders := make([]entities.Order, 0, len(cmd.OrderIDs))
	for _, orderID := range cmd.OrderIDs {
		order, err := uc.Orders.GetOrder(ctx, cmd.Tenant, strings.TrimSpace(orderID))
		if err != nil {
			return BulkTransitionResult{}, err
		}
		if err := validateTransition(order, cmd.ToStatus, cmd.ActorRole); err != nil {
			return BulkTransitionResult{}, fmt.Errorf("order %s: %w", order.OrderID, err)
		}
		orders = append(orders, order)
	}

	single := TransitionOrderUseCase{
		Orders:    uc.Orders,
		History:   uc.History,
		Inventory: uc.Inventory,
		Outbox:    uc.Outbox,
		Clock:     uc.Clock,
		IDGen:     uc.IDGen,
		Logger:    uc.Logger,
	}

	results := make([]TransitionOrderResult, 0, len(orders))
	for _, order := range orders {
		now := uc.Clock.Now().UTC()
		from := order.Status

		// Inventory is per-item and non-fatal once the batch is accepted.
		if err := single.applyInventory(ctx, cmd.Tenant, order, cmd.ToStatus); err != nil {
			logger.Error("bulk transition inventory update failed",
				"event", "order_bulk_inventory_failed",
				"module", "sales-pipeline/order-workflow",
				"layer", "application",
				"org_id", cmd.Tenant.OrgID,
				"order_id", order.OrderID,
				"reservation_id", order.ReservationID,
				"error", err.Error(),
			)
		}

		order.Status = cmd.ToStatus
		order.UpdatedAt = now
		if err := uc.Orders.UpdateOrder(ctx, cmd.Tenant, order); err != nil {
			return BulkTransitionResult{}, err
		}
		historyID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return BulkTransitionResult{}, err
		}
		if err := uc.History.AppendHistory(ctx, cmd.Tenant, entities.StatusHistory{
			HistoryID:  historyID,
			OrgID:      cmd.Tenant.OrgID,
			OrderID:    order.OrderID,
			FromStatus: from,
			ToStatus:   cmd.ToStatus,
			ActorID:    strings.TrimSpace(cmd.ActorID),
			ActorRole:  strings.ToLower(strings.TrimSpace(cmd.ActorRole)),
			Note:       strings.TrimSpace(cmd.Note),
			CreatedAt:  now,
		}); err != nil {
			return BulkTransitionResult{}, err
		}
		if err := single.emitTransitionEvents(ctx, TransitionOrderCommand{
			Tenant:    cmd.Tenant,
			OrderID:   order.OrderID,
			ToStatus:  cmd.ToStatus,
			ActorID:   cmd.ActorID,
			ActorRole: cmd.ActorRole,
			Note:      cmd.Note,
		}, order, from, now); err != nil {
			return BulkTransitionResult{}, err
		}
		results = append(results, TransitionOrderResult{PreviousStatus: from, NewStatus: cmd.ToStatus})
	}

	logger.Info("order bulk transition applied",
		"event", "order_bulk_transition_applied",
		"module", "sales-pipeline/order-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"order_count", len(results),
		"to_status", string(cmd.ToStatus),
	)
	return BulkTransitionResult{Transitioned: results}, nil
}
