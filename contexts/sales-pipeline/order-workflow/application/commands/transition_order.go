package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "adops/contexts/sales-pipeline/order-workflow/application"
	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/order-workflow/domain/errors"
	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

type TransitionOrderCommand struct {
	Tenant    tenant.Context
	OrderID   string
	ToStatus  entities.OrderStatus
	ActorID   string
	ActorRole string
	Note      string
}

type TransitionOrderResult struct {
	PreviousStatus entities.OrderStatus
	NewStatus      entities.OrderStatus
}

type TransitionOrderUseCase struct {
	Orders    ports.OrderRepository
	History   ports.HistoryRepository
	Inventory ports.InventoryRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// validateTransition applies the transition-table and role checks without
// mutating anything; bulk transitions reuse it for the all-or-nothing stage.
func validateTransition(order entities.Order, to entities.OrderStatus, actorRole string) error {
	if !entities.IsSupportedStatus(to) {
		return fmt.Errorf("%w: unknown status %q", domainerrors.ErrInvalidOrderInput, to)
	}
	if !entities.CanTransition(order.Status, to) {
		return fmt.Errorf("%w: %s -> %s (allowed: %v)",
			domainerrors.ErrTransitionNotAllowed, order.Status, to, entities.AllowedTargets(order.Status))
	}
	if !entities.RolePermitted(to, actorRole) {
		return fmt.Errorf("%w: role %q cannot set status %s",
			domainerrors.ErrRoleNotPermitted, actorRole, to)
	}
	return nil
}

func (uc TransitionOrderUseCase) Execute(ctx context.Context, cmd TransitionOrderCommand) (TransitionOrderResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return TransitionOrderResult{}, err
	}
	order, err := uc.Orders.GetOrder(ctx, cmd.Tenant, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return TransitionOrderResult{}, err
	}
	if err := validateTransition(order, cmd.ToStatus, cmd.ActorRole); err != nil {
		return TransitionOrderResult{}, err
	}

	// Inventory moves first so a slot failure aborts before the status commit;
	// the counters and the status never disagree.
	if err := uc.applyInventory(ctx, cmd.Tenant, order, cmd.ToStatus); err != nil {
		return TransitionOrderResult{}, err
	}

	now := uc.Clock.Now().UTC()
	from := order.Status
	order.Status = cmd.ToStatus
	order.UpdatedAt = now
	if err := uc.Orders.UpdateOrder(ctx, cmd.Tenant, order); err != nil {
		return TransitionOrderResult{}, err
	}

	historyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return TransitionOrderResult{}, err
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
		return TransitionOrderResult{}, err
	}

	if err := uc.emitTransitionEvents(ctx, cmd, order, from, now); err != nil {
		return TransitionOrderResult{}, err
	}

	logger.Info("order status changed",
		"event", "order_status_changed",
		"module", "sales-pipeline/order-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"order_id", order.OrderID,
		"from_status", string(from),
		"to_status", string(cmd.ToStatus),
	)
	return TransitionOrderResult{PreviousStatus: from, NewStatus: cmd.ToStatus}, nil
}

// applyInventory performs the paired slot mutation for transitions that cross
// a reservation boundary. Orders without a reservation are unaffected.
func (uc TransitionOrderUseCase) applyInventory(ctx context.Context, tc tenant.Context, order entities.Order, to entities.OrderStatus) error {
	if order.ReservationID == "" {
		return nil
	}
	switch {
	case order.Status == entities.OrderStatusApproved && to == entities.OrderStatusBooked:
		return uc.Inventory.CommitReservation(ctx, tc, order.ReservationID)
	case to == entities.OrderStatusCancelled:
		return uc.Inventory.ReleaseReservation(ctx, tc, order.ReservationID)
	default:
		return nil
	}
}

func (uc TransitionOrderUseCase) emitTransitionEvents(
	ctx context.Context,
	cmd TransitionOrderCommand,
	order entities.Order,
	from entities.OrderStatus,
	now time.Time,
) error {
	data := map[string]any{
		"order": map[string]any{
			"order_id":    order.OrderID,
			"campaign_id": order.CampaignID,
			"status":      string(order.Status),
			"prev_status": string(from),
			"gross":       order.GrossAmount,
			"net":         order.NetAmount,
			"commission":  order.Commission,
			"total":       order.TotalAmount,
		},
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newOrderEnvelope(eventID, events.EventOrderStatusChanged, cmd.Tenant, order.OrderID, cmd.ActorID, cmd.ActorRole, now, data)
	if err != nil {
		return err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return err
	}

	if from != entities.OrderStatusApproved || order.Status != entities.OrderStatusBooked || order.CampaignID == "" {
		return nil
	}
	booked, err := uc.Orders.CountOrders(ctx, cmd.Tenant, ports.OrderFilter{
		CampaignID: order.CampaignID,
		Status:     entities.OrderStatusBooked,
	})
	if err != nil {
		return err
	}
	if booked != 1 {
		return nil
	}
	eventID, err = uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	first, err := newOrderEnvelope(eventID, events.EventFirstSpotBooked, cmd.Tenant, order.OrderID, cmd.ActorID, cmd.ActorRole, now, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, first)
}
