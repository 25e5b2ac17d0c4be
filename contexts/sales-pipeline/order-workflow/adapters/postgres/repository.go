package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/order-workflow/domain/errors"
	"adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/tenant"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateOrder(ctx context.Context, tc tenant.Context, order entities.Order) error {
	order.OrgID = tc.OrgID
	row := orderModelFromEntity(order)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidOrderInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateOrder(ctx context.Context, tc tenant.Context, order entities.Order) error {
	result := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("org_id = ? AND order_id = ?", tc.OrgID, strings.TrimSpace(order.OrderID)).
		Updates(map[string]any{
			"status":         string(order.Status),
			"reservation_id": strings.TrimSpace(order.ReservationID),
			"gross_amount":   order.GrossAmount,
			"net_amount":     order.NetAmount,
			"commission":     order.Commission,
			"total_amount":   order.TotalAmount,
			"updated_at":     order.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, tc tenant.Context, orderID string) (entities.Order, error) {
	var row orderModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND order_id = ?", tc.OrgID, strings.TrimSpace(orderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Order{}, domainerrors.ErrOrderNotFound
		}
		return entities.Order{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListOrders(ctx context.Context, tc tenant.Context, filter ports.OrderFilter) ([]entities.Order, error) {
	var rows []orderModel
	if err := r.filteredOrders(ctx, tc, filter).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountOrders(ctx context.Context, tc tenant.Context, filter ports.OrderFilter) (int, error) {
	var count int64
	if err := r.filteredOrders(ctx, tc, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) filteredOrders(ctx context.Context, tc tenant.Context, filter ports.OrderFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&orderModel{}).Where("org_id = ?", tc.OrgID)
	if strings.TrimSpace(filter.CampaignID) != "" {
		tx = tx.Where("campaign_id = ?", strings.TrimSpace(filter.CampaignID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	return tx
}

func (r *Repository) AppendHistory(ctx context.Context, tc tenant.Context, item entities.StatusHistory) error {
	row := historyModel{
		HistoryID:  strings.TrimSpace(item.HistoryID),
		OrgID:      tc.OrgID,
		OrderID:    strings.TrimSpace(item.OrderID),
		FromStatus: string(item.FromStatus),
		ToStatus:   string(item.ToStatus),
		ActorID:    strings.TrimSpace(item.ActorID),
		ActorRole:  strings.TrimSpace(item.ActorRole),
		Note:       strings.TrimSpace(item.Note),
		CreatedAt:  item.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidOrderInput
		}
		return err
	}
	return nil
}

// CreateOrderPackage writes the order, contract and invoice in one database
// transaction so approval either produces the full package or nothing.
func (r *Repository) CreateOrderPackage(ctx context.Context, tc tenant.Context, order entities.Order, contract entities.Contract, invoice entities.Invoice) error {
	order.OrgID = tc.OrgID
	contract.OrgID = tc.OrgID
	invoice.OrgID = tc.OrgID
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRow := orderModelFromEntity(order)
		if err := tx.Create(&orderRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidOrderInput
			}
			return err
		}
		contractRow := contractModelFromEntity(contract)
		if err := tx.Create(&contractRow).Error; err != nil {
			return err
		}
		invoiceRow := invoiceModelFromEntity(invoice)
		return tx.Create(&invoiceRow).Error
	})
}

func (r *Repository) PutSlot(ctx context.Context, tc tenant.Context, slot entities.SlotCounter) error {
	slot.OrgID = tc.OrgID
	if !slot.Consistent() {
		return domainerrors.ErrSlotInconsistent
	}
	row := slotModel{
		OrgID:         slot.OrgID,
		ShowID:        strings.TrimSpace(slot.ShowID),
		AirDate:       strings.TrimSpace(slot.AirDate),
		PlacementType: strings.TrimSpace(slot.PlacementType),
		Total:         slot.Total,
		Available:     slot.Available,
		Reserved:      slot.Reserved,
		Booked:        slot.Booked,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "org_id"}, {Name: "show_id"}, {Name: "air_date"}, {Name: "placement_type"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"total", "available", "reserved", "booked"}),
		}).
		Create(&row).
		Error
}

func (r *Repository) GetSlot(ctx context.Context, tc tenant.Context, key ports.SlotKey) (entities.SlotCounter, error) {
	var row slotModel
	err := r.slotQuery(r.db.WithContext(ctx), tc, key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SlotCounter{}, domainerrors.ErrSlotNotFound
		}
		return entities.SlotCounter{}, err
	}
	return row.toEntity(), nil
}

// ReserveSlot moves one unit from available to reserved with a guarded UPDATE;
// RowsAffected == 0 means the slot was already exhausted.
func (r *Repository) ReserveSlot(ctx context.Context, tc tenant.Context, campaignID string, key ports.SlotKey) (entities.Reservation, error) {
	var reservation entities.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := r.slotQuery(tx, tc, key).
			Where("available >= 1").
			Updates(map[string]any{
				"available": gorm.Expr("available - 1"),
				"reserved":  gorm.Expr("reserved + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var row slotModel
			if err := r.slotQuery(tx, tc, key).First(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrSlotNotFound
				}
				return err
			}
			return domainerrors.ErrSlotExhausted
		}

		now := time.Now().UTC()
		row := reservationModel{
			ReservationID: uuid.NewString(),
			OrgID:         tc.OrgID,
			CampaignID:    strings.TrimSpace(campaignID),
			ShowID:        strings.TrimSpace(key.ShowID),
			AirDate:       strings.TrimSpace(key.AirDate),
			PlacementType: strings.TrimSpace(key.PlacementType),
			Status:        string(entities.ReservationStatusHeld),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		reservation = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Reservation{}, err
	}
	return reservation, nil
}

func (r *Repository) CommitReservation(ctx context.Context, tc tenant.Context, reservationID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.lockReservation(tx, tc, reservationID)
		if err != nil {
			return err
		}
		if row.Status != string(entities.ReservationStatusHeld) {
			return domainerrors.ErrReservationReleased
		}
		result := r.slotQuery(tx, tc, ports.SlotKey{ShowID: row.ShowID, AirDate: row.AirDate, PlacementType: row.PlacementType}).
			Where("reserved >= 1").
			Updates(map[string]any{
				"reserved": gorm.Expr("reserved - 1"),
				"booked":   gorm.Expr("booked + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrSlotInconsistent
		}
		return tx.Model(&reservationModel{}).
			Where("org_id = ? AND reservation_id = ?", tc.OrgID, row.ReservationID).
			Updates(map[string]any{
				"status":     string(entities.ReservationStatusBooked),
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

func (r *Repository) ReleaseReservation(ctx context.Context, tc tenant.Context, reservationID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.lockReservation(tx, tc, reservationID)
		if err != nil {
			return err
		}
		key := ports.SlotKey{ShowID: row.ShowID, AirDate: row.AirDate, PlacementType: row.PlacementType}
		var result *gorm.DB
		switch row.Status {
		case string(entities.ReservationStatusHeld):
			result = r.slotQuery(tx, tc, key).
				Where("reserved >= 1").
				Updates(map[string]any{
					"reserved":  gorm.Expr("reserved - 1"),
					"available": gorm.Expr("available + 1"),
				})
		case string(entities.ReservationStatusBooked):
			result = r.slotQuery(tx, tc, key).
				Where("booked >= 1").
				Updates(map[string]any{
					"booked":    gorm.Expr("booked - 1"),
					"available": gorm.Expr("available + 1"),
				})
		default:
			return domainerrors.ErrReservationReleased
		}
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrSlotInconsistent
		}
		return tx.Model(&reservationModel{}).
			Where("org_id = ? AND reservation_id = ?", tc.OrgID, row.ReservationID).
			Updates(map[string]any{
				"status":     string(entities.ReservationStatusReleased),
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

func (r *Repository) GetReservation(ctx context.Context, tc tenant.Context, reservationID string) (entities.Reservation, error) {
	var row reservationModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND reservation_id = ?", tc.OrgID, strings.TrimSpace(reservationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Reservation{}, domainerrors.ErrReservationNotFound
		}
		return entities.Reservation{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) lockReservation(tx *gorm.DB, tc tenant.Context, reservationID string) (reservationModel, error) {
	var row reservationModel
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("org_id = ? AND reservation_id = ?", tc.OrgID, strings.TrimSpace(reservationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reservationModel{}, domainerrors.ErrReservationNotFound
		}
		return reservationModel{}, err
	}
	return row, nil
}

func (r *Repository) slotQuery(tx *gorm.DB, tc tenant.Context, key ports.SlotKey) *gorm.DB {
	return tx.Model(&slotModel{}).Where(
		"org_id = ? AND show_id = ? AND air_date = ? AND placement_type = ?",
		tc.OrgID,
		strings.TrimSpace(key.ShowID),
		strings.TrimSpace(key.AirDate),
		strings.TrimSpace(key.PlacementType),
	)
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:  strings.TrimSpace(envelope.EventID),
		EventType: strings.TrimSpace(envelope.EventType),
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrInvalidOrderInput
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   append([]byte(nil), row.Payload...),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidOrderInput
	}
	return nil
}

type orderModel struct {
	OrderID       string    `gorm:"column:order_id;primaryKey"`
	OrgID         string    `gorm:"column:org_id;index"`
	CampaignID    string    `gorm:"column:campaign_id;index"`
	ReservationID string    `gorm:"column:reservation_id"`
	Status        string    `gorm:"column:status"`
	GrossAmount   float64   `gorm:"column:gross_amount"`
	NetAmount     float64   `gorm:"column:net_amount"`
	Commission    float64   `gorm:"column:commission"`
	TotalAmount   float64   `gorm:"column:total_amount"`
	CreatedBy     string    `gorm:"column:created_by"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (orderModel) TableName() string {
	return "pipeline_orders"
}

func orderModelFromEntity(item entities.Order) orderModel {
	return orderModel{
		OrderID:       strings.TrimSpace(item.OrderID),
		OrgID:         strings.TrimSpace(item.OrgID),
		CampaignID:    strings.TrimSpace(item.CampaignID),
		ReservationID: strings.TrimSpace(item.ReservationID),
		Status:        string(item.Status),
		GrossAmount:   item.GrossAmount,
		NetAmount:     item.NetAmount,
		Commission:    item.Commission,
		TotalAmount:   item.TotalAmount,
		CreatedBy:     strings.TrimSpace(item.CreatedBy),
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func (m orderModel) toEntity() entities.Order {
	return entities.Order{
		OrderID:       m.OrderID,
		OrgID:         m.OrgID,
		CampaignID:    m.CampaignID,
		ReservationID: m.ReservationID,
		Status:        entities.OrderStatus(m.Status),
		GrossAmount:   m.GrossAmount,
		NetAmount:     m.NetAmount,
		Commission:    m.Commission,
		TotalAmount:   m.TotalAmount,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type historyModel struct {
	HistoryID  string    `gorm:"column:history_id;primaryKey"`
	OrgID      string    `gorm:"column:org_id;index"`
	OrderID    string    `gorm:"column:order_id;index"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status"`
	ActorID    string    `gorm:"column:actor_id"`
	ActorRole  string    `gorm:"column:actor_role"`
	Note       string    `gorm:"column:note"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (historyModel) TableName() string {
	return "pipeline_order_history"
}

type contractModel struct {
	ContractID string    `gorm:"column:contract_id;primaryKey"`
	OrgID      string    `gorm:"column:org_id;index"`
	CampaignID string    `gorm:"column:campaign_id;index"`
	OrderID    string    `gorm:"column:order_id;index"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (contractModel) TableName() string {
	return "pipeline_contracts"
}

func contractModelFromEntity(item entities.Contract) contractModel {
	return contractModel{
		ContractID: strings.TrimSpace(item.ContractID),
		OrgID:      strings.TrimSpace(item.OrgID),
		CampaignID: strings.TrimSpace(item.CampaignID),
		OrderID:    strings.TrimSpace(item.OrderID),
		CreatedAt:  item.CreatedAt.UTC(),
	}
}

type invoiceModel struct {
	InvoiceID string    `gorm:"column:invoice_id;primaryKey"`
	OrgID     string    `gorm:"column:org_id;index"`
	OrderID   string    `gorm:"column:order_id;index"`
	Amount    float64   `gorm:"column:amount"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (invoiceModel) TableName() string {
	return "pipeline_invoices"
}

func invoiceModelFromEntity(item entities.Invoice) invoiceModel {
	return invoiceModel{
		InvoiceID: strings.TrimSpace(item.InvoiceID),
		OrgID:     strings.TrimSpace(item.OrgID),
		OrderID:   strings.TrimSpace(item.OrderID),
		Amount:    item.Amount,
		CreatedAt: item.CreatedAt.UTC(),
	}
}

type slotModel struct {
	OrgID         string `gorm:"column:org_id;primaryKey"`
	ShowID        string `gorm:"column:show_id;primaryKey"`
	AirDate       string `gorm:"column:air_date;primaryKey"`
	PlacementType string `gorm:"column:placement_type;primaryKey"`
	Total         int    `gorm:"column:total"`
	Available     int    `gorm:"column:available"`
	Reserved      int    `gorm:"column:reserved"`
	Booked        int    `gorm:"column:booked"`
}

func (slotModel) TableName() string {
	return "pipeline_inventory_slots"
}

func (m slotModel) toEntity() entities.SlotCounter {
	return entities.SlotCounter{
		OrgID:         m.OrgID,
		ShowID:        m.ShowID,
		AirDate:       m.AirDate,
		PlacementType: m.PlacementType,
		Total:         m.Total,
		Available:     m.Available,
		Reserved:      m.Reserved,
		Booked:        m.Booked,
	}
}

type reservationModel struct {
	ReservationID string    `gorm:"column:reservation_id;primaryKey"`
	OrgID         string    `gorm:"column:org_id;index"`
	CampaignID    string    `gorm:"column:campaign_id;index"`
	ShowID        string    `gorm:"column:show_id"`
	AirDate       string    `gorm:"column:air_date"`
	PlacementType string    `gorm:"column:placement_type"`
	Status        string    `gorm:"column:status"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (reservationModel) TableName() string {
	return "pipeline_reservations"
}

func (m reservationModel) toEntity() entities.Reservation {
	return entities.Reservation{
		ReservationID: m.ReservationID,
		OrgID:         m.OrgID,
		CampaignID:    m.CampaignID,
		ShowID:        m.ShowID,
		AirDate:       m.AirDate,
		PlacementType: m.PlacementType,
		Status:        entities.ReservationStatus(m.Status),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "pipeline_order_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
