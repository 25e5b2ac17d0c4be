package queries

import (
	"context"
	"strings"

	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/tenant"
)

type GetOrderUseCase struct {
	Orders ports.OrderRepository
}

func (uc GetOrderUseCase) Execute(ctx context.Context, tc tenant.Context, orderID string) (entities.Order, error) {
	if err := tc.Validate(); err != nil {
		return entities.Order{}, err
	}
	return uc.Orders.GetOrder(ctx, tc, strings.TrimSpace(orderID))
}

type ListOrdersUseCase struct {
	Orders ports.OrderRepository
}

func (uc ListOrdersUseCase) Execute(ctx context.Context, tc tenant.Context, filter ports.OrderFilter) ([]entities.Order, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return uc.Orders.ListOrders(ctx, tc, filter)
}

type GetSlotUseCase struct {
	Inventory ports.InventoryRepository
}

func (uc GetSlotUseCase) Execute(ctx context.Context, tc tenant.Context, key ports.SlotKey) (entities.SlotCounter, error) {
	if err := tc.Validate(); err != nil {
		return entities.SlotCounter{}, err
	}
	return uc.Inventory.GetSlot(ctx, tc, key)
}
