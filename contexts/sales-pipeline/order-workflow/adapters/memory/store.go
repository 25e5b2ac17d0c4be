package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/order-workflow/domain/errors"
	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/tenant"
)

type slotMapKey struct {
	orgID         string
	showID        string
	airDate       string
	placementType string
}

type outboxRow struct {
	ports.OutboxMessage
	PublishedAt *time.Time
}

// Store is the in-memory implementation of the order-workflow ports, used by
// tests and the dev profile. All mutations happen under one mutex so the slot
// counter invariant cannot be observed mid-flight.
type Store struct {
	mu           sync.RWMutex
	orders       map[string]entities.Order
	history      []entities.StatusHistory
	contracts    map[string]entities.Contract
	invoices     map[string]entities.Invoice
	slots        map[slotMapKey]entities.SlotCounter
	reservations map[string]entities.Reservation
	outbox       []outboxRow
}

func NewStore() *Store {
	return &Store{
		orders:       make(map[string]entities.Order),
		contracts:    make(map[string]entities.Contract),
		invoices:     make(map[string]entities.Invoice),
		slots:        make(map[slotMapKey]entities.SlotCounter),
		reservations: make(map[string]entities.Reservation),
	}
}

func (s *Store) CreateOrder(_ context.Context, tc tenant.Context, order entities.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.OrderID]; exists {
		return fmt.Errorf("%w: order %s already exists", domainerrors.ErrInvalidOrderInput, order.OrderID)
	}
	order.OrgID = tc.OrgID
	s.orders[order.OrderID] = order
	return nil
}

func (s *Store) UpdateOrder(_ context.Context, tc tenant.Context, order entities.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.orders[order.OrderID]
	if !exists || existing.OrgID != tc.OrgID {
		return domainerrors.ErrOrderNotFound
	}
	order.OrgID = tc.OrgID
	s.orders[order.OrderID] = order
	return nil
}

func (s *Store) GetOrder(_ context.Context, tc tenant.Context, orderID string) (entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, exists := s.orders[orderID]
	if !exists || order.OrgID != tc.OrgID {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	return order, nil
}

func (s *Store) ListOrders(_ context.Context, tc tenant.Context, filter ports.OrderFilter) ([]entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Order, 0)
	for _, order := range s.orders {
		if orderMatches(order, tc, filter) {
			items = append(items, order)
		}
	}
	return items, nil
}

func (s *Store) CountOrders(_ context.Context, tc tenant.Context, filter ports.OrderFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, order := range s.orders {
		if orderMatches(order, tc, filter) {
			count++
		}
	}
	return count, nil
}

func orderMatches(order entities.Order, tc tenant.Context, filter ports.OrderFilter) bool {
	if order.OrgID != tc.OrgID {
		return false
	}
	if filter.CampaignID != "" && order.CampaignID != filter.CampaignID {
		return false
	}
	if filter.Status != "" && order.Status != filter.Status {
		return false
	}
	return true
}

func (s *Store) AppendHistory(_ context.Context, tc tenant.Context, item entities.StatusHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.OrgID = tc.OrgID
	s.history = append(s.history, item)
	return nil
}

// HistoryForOrder is a test helper.
func (s *Store) HistoryForOrder(tc tenant.Context, orderID string) []entities.StatusHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.StatusHistory, 0)
	for _, item := range s.history {
		if item.OrgID == tc.OrgID && item.OrderID == orderID {
			items = append(items, item)
		}
	}
	return items
}

// PackageForOrder is a test helper returning the contract and invoice rows
// created alongside an order.
func (s *Store) PackageForOrder(tc tenant.Context, orderID string) (entities.Contract, entities.Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var contract entities.Contract
	var invoice entities.Invoice
	foundContract, foundInvoice := false, false
	for _, item := range s.contracts {
		if item.OrgID == tc.OrgID && item.OrderID == orderID {
			contract, foundContract = item, true
			break
		}
	}
	for _, item := range s.invoices {
		if item.OrgID == tc.OrgID && item.OrderID == orderID {
			invoice, foundInvoice = item, true
			break
		}
	}
	return contract, invoice, foundContract && foundInvoice
}

func (s *Store) CreateOrderPackage(_ context.Context, tc tenant.Context, order entities.Order, contract entities.Contract, invoice entities.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.OrderID]; exists {
		return fmt.Errorf("%w: order %s already exists", domainerrors.ErrInvalidOrderInput, order.OrderID)
	}
	order.OrgID = tc.OrgID
	contract.OrgID = tc.OrgID
	invoice.OrgID = tc.OrgID
	s.orders[order.OrderID] = order
	s.contracts[contract.ContractID] = contract
	s.invoices[invoice.InvoiceID] = invoice
	return nil
}

func (s *Store) PutSlot(_ context.Context, tc tenant.Context, slot entities.SlotCounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.OrgID = tc.OrgID
	if !slot.Consistent() {
		return domainerrors.ErrSlotInconsistent
	}
	s.slots[slotMapKey{tc.OrgID, slot.ShowID, slot.AirDate, slot.PlacementType}] = slot
	return nil
}

func (s *Store) GetSlot(_ context.Context, tc tenant.Context, key ports.SlotKey) (entities.SlotCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, exists := s.slots[slotMapKey{tc.OrgID, key.ShowID, key.AirDate, key.PlacementType}]
	if !exists {
		return entities.SlotCounter{}, domainerrors.ErrSlotNotFound
	}
	return slot, nil
}

func (s *Store) ReserveSlot(_ context.Context, tc tenant.Context, campaignID string, key ports.SlotKey) (entities.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mapKey := slotMapKey{tc.OrgID, key.ShowID, key.AirDate, key.PlacementType}
	slot, exists := s.slots[mapKey]
	if !exists {
		return entities.Reservation{}, domainerrors.ErrSlotNotFound
	}
	if slot.Available < 1 {
		return entities.Reservation{}, domainerrors.ErrSlotExhausted
	}
	slot.Available--
	slot.Reserved++
	s.slots[mapKey] = slot

	now := time.Now().UTC()
	reservation := entities.Reservation{
		ReservationID: uuid.NewString(),
		OrgID:         tc.OrgID,
		CampaignID:    campaignID,
		ShowID:        key.ShowID,
		AirDate:       key.AirDate,
		PlacementType: key.PlacementType,
		Status:        entities.ReservationStatusHeld,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.reservations[reservation.ReservationID] = reservation
	return reservation, nil
}

func (s *Store) CommitReservation(_ context.Context, tc tenant.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservation, exists := s.reservations[reservationID]
	if !exists || reservation.OrgID != tc.OrgID {
		return domainerrors.ErrReservationNotFound
	}
	if reservation.Status != entities.ReservationStatusHeld {
		return domainerrors.ErrReservationReleased
	}
	mapKey := slotMapKey{tc.OrgID, reservation.ShowID, reservation.AirDate, reservation.PlacementType}
	slot, exists := s.slots[mapKey]
	if !exists {
		return domainerrors.ErrSlotNotFound
	}
	if slot.Reserved < 1 {
		return domainerrors.ErrSlotInconsistent
	}
	slot.Reserved--
	slot.Booked++
	s.slots[mapKey] = slot

	reservation.Status = entities.ReservationStatusBooked
	reservation.UpdatedAt = time.Now().UTC()
	s.reservations[reservationID] = reservation
	return nil
}

func (s *Store) ReleaseReservation(_ context.Context, tc tenant.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reservation, exists := s.reservations[reservationID]
	if !exists || reservation.OrgID != tc.OrgID {
		return domainerrors.ErrReservationNotFound
	}
	if reservation.Status == entities.ReservationStatusReleased {
		return domainerrors.ErrReservationReleased
	}
	mapKey := slotMapKey{tc.OrgID, reservation.ShowID, reservation.AirDate, reservation.PlacementType}
	slot, exists := s.slots[mapKey]
	if !exists {
		return domainerrors.ErrSlotNotFound
	}
	switch reservation.Status {
	case entities.ReservationStatusHeld:
		if slot.Reserved < 1 {
			return domainerrors.ErrSlotInconsistent
		}
		slot.Reserved--
	case entities.ReservationStatusBooked:
		if slot.Booked < 1 {
			return domainerrors.ErrSlotInconsistent
		}
		slot.Booked--
	}
	slot.Available++
	s.slots[mapKey] = slot

	reservation.Status = entities.ReservationStatusReleased
	reservation.UpdatedAt = time.Now().UTC()
	s.reservations[reservationID] = reservation
	return nil
}

func (s *Store) GetReservation(_ context.Context, tc tenant.Context, reservationID string) (entities.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reservation, exists := s.reservations[reservationID]
	if !exists || reservation.OrgID != tc.OrgID {
		return entities.Reservation{}, domainerrors.ErrReservationNotFound
	}
	return reservation, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.outbox {
		if row.EventType == envelope.EventType && string(row.Payload) == string(payload) {
			return nil
		}
	}
	s.outbox = append(s.outbox, outboxRow{OutboxMessage: ports.OutboxMessage{
		OutboxID:  uuid.NewString(),
		EventType: envelope.EventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.PublishedAt != nil {
			continue
		}
		items = append(items, row.OutboxMessage)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].OutboxID == outboxID {
			ts := publishedAt.UTC()
			s.outbox[i].PublishedAt = &ts
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
