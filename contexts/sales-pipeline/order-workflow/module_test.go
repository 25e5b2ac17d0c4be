package orderworkflow_test

import (
	"context"
	"errors"
	"testing"

	orderworkflow "adops/contexts/sales-pipeline/order-workflow"
	"adops/contexts/sales-pipeline/order-workflow/application/commands"
	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/order-workflow/domain/errors"
	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/tenant"
)

var testTenant = tenant.New("org-1")

func createDraftOrder(t *testing.T, module orderworkflow.Module) entities.Order {
	t.Helper()
	result, err := module.CreateOrder.Execute(context.Background(), commands.CreateOrderCommand{
		Tenant:      testTenant,
		CampaignID:  "cmp-1",
		GrossAmount: 10000,
		Commission:  1500,
		ActorID:     "user-1",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return result.Order
}

func TestTransitionOrderHappyPath(t *testing.T) {
	module := orderworkflow.NewInMemoryModule(nil)
	order := createDraftOrder(t, module)

	result, err := module.TransitionOrder.Execute(context.Background(), commands.TransitionOrderCommand{
		Tenant:    testTenant,
		OrderID:   order.OrderID,
		ToStatus:  entities.OrderStatusPendingApproval,
		ActorID:   "user-1",
		ActorRole: "sales",
	})
	if err != nil {
		t.Fatalf("draft -> pending_approval: %v", err)
	}
	if result.PreviousStatus != entities.OrderStatusDraft || result.NewStatus != entities.OrderStatusPendingApproval {
		t.Fatalf("unexpected result %+v", result)
	}

	if _, err := module.TransitionOrder.Execute(context.Background(), commands.TransitionOrderCommand{
		Tenant:    testTenant,
		OrderID:   order.OrderID,
		ToStatus:  entities.OrderStatusApproved,
		ActorID:   "user-2",
		ActorRole: "admin",
	}); err != nil {
		t.Fatalf("pending_approval -> approved: %v", err)
	}

	history := module.Store.HistoryForOrder(testTenant, order.OrderID)
	// One row from creation plus one per transition.
	if len(history) != 3 {
		t.Fatalf("expected 3 history rows, got %d", len(history))
	}
}

func TestTransitionOrderRejectsIllegalMove(t *testing.T) {
	module := orderworkflow.NewInMemoryModule(nil)
	order := createDraftOrder(t, module)

	_, err := module.TransitionOrder.Execute(context.Background(), commands.TransitionOrderCommand{
		Tenant:    testTenant,
		OrderID:   order.OrderID,
		ToStatus:  entities.OrderStatusApproved,
		ActorID:   "user-1",
		ActorRole: "admin",
	})
	if !errors.Is(err, domainerrors.ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}

	fetched, err := module.GetOrder.Execute(context.Background(), testTenant, order.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if fetched.Status != entities.OrderStatusDraft {
		t.Fatalf("rejected transition must not change status, got %s", fetched.Status)
	}
}

func TestTransitionOrderRejectsRole(t *testing.T) {
	module := orderworkflow.NewInMemoryModule(nil)
	order := createDraftOrder(t, module)

	if _, err := module.TransitionOrder.Execute(context.Background(), commands.TransitionOrderCommand{
		Tenant:    testTenant,
		OrderID:   order.OrderID,
		ToStatus:  entities.OrderStatusPendingApproval,
		ActorID:   "user-1",
		ActorRole: "sales",
	}); err != nil {
		t.Fatalf("sales can request approval: %v", err)
	}

	_, err := module.TransitionOrder.Execute(context.Background(), commands.TransitionOrderCommand{
		Tenant:    testTenant,
		OrderID:   order.OrderID,
		ToStatus:  entities.OrderStatusApproved,
		ActorID:   "user-1",
		ActorRole: "sales",
	})
	if !errors.Is(err, domainerrors.ErrRoleNotPermitted) {
		t.Fatalf("expected ErrRoleNotPermitted, got %v", err)
	}
}

func TestBookingCommitsReservation(t *testing.T) {
	module := orderworkflow.NewInMemoryModule(nil)
	store := module.Store
	ctx := context.Background()

	key := ports.SlotKey{ShowID: "show-1", AirDate: "2026-09-12", PlacementType: "midroll"}
	if err := store.PutSlot(ctx, testTenant, entities.SlotCounter{
		OrgID:         testTenant.OrgID,
		ShowID:        key.ShowID,
		AirDate:       key.AirDate,
		PlacementType: key.PlacementType,
		Total:         2,
		Available:     2,
	}); err != nil {
		t.Fatalf("put slot: %v", err)
	}

	reservation, err := store.ReserveSlot(ctx, testTenant, "cmp-1", key)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	order := createDraftOrder(t, module)
	order.ReservationID = reservation.ReservationID
	order.Status = entities.OrderStatusApproved
	if err := store.UpdateOrder(ctx, testTenant, order); err != nil {
		t.Fatalf("seed approved order: %v", err)
	}

	if _, err := module.TransitionOrder.Execute(ctx, commands.TransitionOrderCommand{
		Tenant:    testTenant,
		OrderID:   order.OrderID,
		ToStatus:  entities.OrderStatusBooked,
		ActorID:   "user-1",
		ActorRole: "sales",
	}); err != nil {
		t.Fatalf("approved -> booked: %v", err)
	}

	slot, err := module.GetSlot.Execute(ctx, testTenant, key)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.Available != 1 || slot.Reserved != 0 || slot.Booked != 1 {
		t.Fatalf("booking must move reserved to booked, got %+v", slot)
	}
	if !slot.Consistent() {
		t.Fatalf("slot counters inconsistent: %+v", slot)
	}
}

func TestCancellationReleasesReservation(t *testing.T) {
	module := orderworkflow.NewInMemoryModule(nil)
	store := module.Store
	ctx := context.Background()

	key := ports.SlotKey{ShowID: "show-1", AirDate: "2026-09-12", PlacementType: "preroll"}
	if err := store.PutSlot(ctx, testTenant, entities.SlotCounter{
		OrgID:         testTenant.OrgID,
		ShowID:        key.ShowID,
		AirDate:       key.AirDate,
		PlacementType: key.PlacementType,
		Total:         1,
		Available:     1,
	}); err != nil {
		t.Fatalf("put slot: %v", err)
	}
	reservation, err := store.ReserveSlot(ctx, testTenant, "cmp-1", key)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	order := createDraftOrder(t, module)
	order.ReservationID = reservation.ReservationID
	if err := store.UpdateOrder(ctx, testTenant, order); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	if _, err := module.TransitionOrder.Execute(ctx, commands.TransitionOrderCommand{
		Tenant:    testTenant,
		OrderID:   order.OrderID,
		ToStatus:  entities.OrderStatusCancelled,
		ActorID:   "user-1",
		ActorRole: "admin",
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	slot, err := module.GetSlot.Execute(ctx, testTenant, key)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.Available != 1 || slot.Reserved != 0 || slot.Booked != 0 {
		t.Fatalf("cancellation must return the slot, got %+v", slot)
	}
}

func TestReserveSlotExhaustion(t *testing.T) {
	module := orderworkflow.NewInMemoryModule(nil)
	store := module.Store
	ctx := context.Background()

	key := ports.SlotKey{ShowID: "show-2", AirDate: "2026-10-01", PlacementType: "midroll"}
	if err := store.PutSlot(ctx, testTenant, entities.SlotCounter{
		OrgID:         testTenant.OrgID,
		ShowID:        key.ShowID,
		AirDate:       key.AirDate,
		PlacementType: key.PlacementType,
		Total:         1,
		Available:     1,
	}); err != nil {
		t.Fatalf("put slot: %v", err)
	}

	if _, err := store.ReserveSlot(ctx, testTenant, "cmp-1", key); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	_, err := store.ReserveSlot(ctx, testTenant, "cmp-2", key)
	if !errors.Is(err, domainerrors.ErrSlotExhausted) {
		t.Fatalf("expected ErrSlotExhausted, got %v", err)
	}
}

func TestBulkTransitionAllOrNothing(t *testing.T) {
	module := orderworkflow.NewInMemoryModule(nil)
	ctx := context.Background()

	first := createDraftOrder(t, module)
	second := createDraftOrder(t, module)

	// Put the second order in a terminal state so the batch cannot pass
	// validation.
	second.Status = entities.OrderStatusCancelled
	if err := module.Store.UpdateOrder(ctx, testTenant, second); err != nil {
		t.Fatalf("seed cancelled order: %v", err)
	}

	_, err := module.BulkTransition.Execute(ctx, commands.BulkTransitionCommand{
		Tenant:    testTenant,
		OrderIDs:  []string{first.OrderID, second.OrderID},
		ToStatus:  entities.OrderStatusPendingApproval,
		ActorID:   "user-1",
		ActorRole: "sales",
	})
	if !errors.Is(err, domainerrors.ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}

	fetched, err := module.GetOrder.Execute(ctx, testTenant, first.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if fetched.Status != entities.OrderStatusDraft {
		t.Fatalf("valid order in a failed batch must stay put, got %s", fetched.Status)
	}
}

func TestBulkTransitionHappyPath(t *testing.T) {
	module := orderworkflow.NewInMemoryModule(nil)
	ctx := context.Background()

	first := createDraftOrder(t, module)
	second := createDraftOrder(t, module)

	result, err := module.BulkTransition.Execute(ctx, commands.BulkTransitionCommand{
		Tenant:    testTenant,
		OrderIDs:  []string{first.OrderID, second.OrderID},
		ToStatus:  entities.OrderStatusPendingApproval,
		ActorID:   "user-1",
		ActorRole: "admin",
	})
	if err != nil {
		t.Fatalf("bulk transition: %v", err)
	}
	if len(result.Transitioned) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(result.Transitioned))
	}
	for _, orderID := range []string{first.OrderID, second.OrderID} {
		fetched, err := module.GetOrder.Execute(ctx, testTenant, orderID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if fetched.Status != entities.OrderStatusPendingApproval {
			t.Fatalf("order %s status = %s", orderID, fetched.Status)
		}
	}
}

func TestTenantIsolation(t *testing.T) {
	module := orderworkflow.NewInMemoryModule(nil)
	order := createDraftOrder(t, module)

	_, err := module.GetOrder.Execute(context.Background(), tenant.New("org-other"), order.OrderID)
	if !errors.Is(err, domainerrors.ErrOrderNotFound) {
		t.Fatalf("cross-org read must look like a missing order, got %v", err)
	}
}
