package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/campaign-workflow/domain/errors"
	"adops/contexts/sales-pipeline/campaign-workflow/ports"
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

func (r *Repository) CreateCampaign(ctx context.Context, tc tenant.Context, campaign entities.Campaign) error {
	campaign.OrgID = tc.OrgID
	row := campaignModelFromEntity(campaign)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidCampaignInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateCampaign(ctx context.Context, tc tenant.Context, campaign entities.Campaign) error {
	result := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("org_id = ? AND campaign_id = ?", tc.OrgID, strings.TrimSpace(campaign.CampaignID)).
		Updates(campaignUpdatesFromEntity(campaign))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	return nil
}

func (r *Repository) GetCampaign(ctx context.Context, tc tenant.Context, campaignID string) (entities.Campaign, error) {
	var row campaignModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND campaign_id = ?", tc.OrgID, strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCampaigns(ctx context.Context, tc tenant.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	tx := r.db.WithContext(ctx).Model(&campaignModel{}).Where("org_id = ?", tc.OrgID)
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if strings.TrimSpace(filter.AdvertiserID) != "" {
		tx = tx.Where("advertiser_id = ?", strings.TrimSpace(filter.AdvertiserID))
	}

	var rows []campaignModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateApproval(ctx context.Context, tc tenant.Context, approval entities.Approval) error {
	approval.OrgID = tc.OrgID
	row := approvalModelFromEntity(approval)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrApprovalPending
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateApproval(ctx context.Context, tc tenant.Context, approval entities.Approval) error {
	result := r.db.WithContext(ctx).
		Model(&approvalModel{}).
		Where("org_id = ? AND approval_id = ?", tc.OrgID, strings.TrimSpace(approval.ApprovalID)).
		Updates(map[string]any{
			"status":      string(approval.Status),
			"reason":      strings.TrimSpace(approval.Reason),
			"resolved_by": strings.TrimSpace(approval.ResolvedBy),
			"resolved_at": normalizeOptionalTime(approval.ResolvedAt),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrApprovalNotFound
	}
	return nil
}

func (r *Repository) GetApproval(ctx context.Context, tc tenant.Context, approvalID string) (entities.Approval, error) {
	var row approvalModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND approval_id = ?", tc.OrgID, strings.TrimSpace(approvalID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Approval{}, domainerrors.ErrApprovalNotFound
		}
		return entities.Approval{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) AppendActivity(ctx context.Context, tc tenant.Context, item entities.ActivityLog) error {
	row := activityModel{
		ActivityID:  strings.TrimSpace(item.ActivityID),
		OrgID:       tc.OrgID,
		CampaignID:  strings.TrimSpace(item.CampaignID),
		Kind:        strings.TrimSpace(item.Kind),
		FromStatus:  string(item.FromStatus),
		ToStatus:    string(item.ToStatus),
		Probability: item.Probability,
		ActorID:     strings.TrimSpace(item.ActorID),
		Note:        strings.TrimSpace(item.Note),
		CreatedAt:   item.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidCampaignInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetPipelineSettings(ctx context.Context, tc tenant.Context) (entities.PipelineSettings, error) {
	var row settingsModel
	err := r.db.WithContext(ctx).
		Where("org_id = ?", tc.OrgID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PipelineSettings{
				OrgID:                tc.OrgID,
				ApprovalFallbackRung: entities.DefaultApprovalFallbackRung,
			}, nil
		}
		return entities.PipelineSettings{}, err
	}
	return entities.PipelineSettings{
		OrgID:                row.OrgID,
		ApprovalFallbackRung: row.ApprovalFallbackRung,
	}, nil
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
		return domainerrors.ErrInvalidCampaignInput
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
		return domainerrors.ErrInvalidCampaignInput
	}
	return nil
}

type campaignModel struct {
	CampaignID    string    `gorm:"column:campaign_id;primaryKey"`
	OrgID         string    `gorm:"column:org_id;index"`
	Name          string    `gorm:"column:name"`
	Status        string    `gorm:"column:status"`
	Probability   int       `gorm:"column:probability"`
	Budget        float64   `gorm:"column:budget"`
	AdvertiserID  string    `gorm:"column:advertiser_id"`
	AgencyID      string    `gorm:"column:agency_id"`
	ReservationID string    `gorm:"column:reservation_id"`
	ApprovalID    string    `gorm:"column:approval_id"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (campaignModel) TableName() string {
	return "pipeline_campaigns"
}

func campaignModelFromEntity(item entities.Campaign) campaignModel {
	return campaignModel{
		CampaignID:    strings.TrimSpace(item.CampaignID),
		OrgID:         strings.TrimSpace(item.OrgID),
		Name:          strings.TrimSpace(item.Name),
		Status:        string(item.Status),
		Probability:   item.Probability,
		Budget:        item.Budget,
		AdvertiserID:  strings.TrimSpace(item.AdvertiserID),
		AgencyID:      strings.TrimSpace(item.AgencyID),
		ReservationID: strings.TrimSpace(item.ReservationID),
		ApprovalID:    strings.TrimSpace(item.ApprovalID),
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func campaignUpdatesFromEntity(item entities.Campaign) map[string]any {
	row := campaignModelFromEntity(item)
	return map[string]any{
		"name":           row.Name,
		"status":         row.Status,
		"probability":    row.Probability,
		"budget":         row.Budget,
		"advertiser_id":  row.AdvertiserID,
		"agency_id":      row.AgencyID,
		"reservation_id": row.ReservationID,
		"approval_id":    row.ApprovalID,
		"updated_at":     row.UpdatedAt,
	}
}

func (m campaignModel) toEntity() entities.Campaign {
	return entities.Campaign{
		CampaignID:    m.CampaignID,
		OrgID:         m.OrgID,
		Name:          m.Name,
		Status:        entities.CampaignStatus(m.Status),
		Probability:   m.Probability,
		Budget:        m.Budget,
		AdvertiserID:  m.AdvertiserID,
		AgencyID:      m.AgencyID,
		ReservationID: m.ReservationID,
		ApprovalID:    m.ApprovalID,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type approvalModel struct {
	ApprovalID    string     `gorm:"column:approval_id;primaryKey"`
	OrgID         string     `gorm:"column:org_id;index"`
	CampaignID    string     `gorm:"column:campaign_id;index"`
	RequiredRoles []string   `gorm:"column:required_roles;type:text[]"`
	Status        string     `gorm:"column:status"`
	Reason        string     `gorm:"column:reason"`
	RequestedBy   string     `gorm:"column:requested_by"`
	ResolvedBy    string     `gorm:"column:resolved_by"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at"`
}

func (approvalModel) TableName() string {
	return "pipeline_approvals"
}

func approvalModelFromEntity(item entities.Approval) approvalModel {
	return approvalModel{
		ApprovalID:    strings.TrimSpace(item.ApprovalID),
		OrgID:         strings.TrimSpace(item.OrgID),
		CampaignID:    strings.TrimSpace(item.CampaignID),
		RequiredRoles: copyOrEmpty(item.RequiredRoles),
		Status:        string(item.Status),
		Reason:        strings.TrimSpace(item.Reason),
		RequestedBy:   strings.TrimSpace(item.RequestedBy),
		ResolvedBy:    strings.TrimSpace(item.ResolvedBy),
		CreatedAt:     item.CreatedAt.UTC(),
		ResolvedAt:    normalizeOptionalTime(item.ResolvedAt),
	}
}

func (m approvalModel) toEntity() entities.Approval {
	return entities.Approval{
		ApprovalID:    m.ApprovalID,
		OrgID:         m.OrgID,
		CampaignID:    m.CampaignID,
		RequiredRoles: copyOrEmpty(m.RequiredRoles),
		Status:        entities.ApprovalStatus(m.Status),
		Reason:        m.Reason,
		RequestedBy:   m.RequestedBy,
		ResolvedBy:    m.ResolvedBy,
		CreatedAt:     m.CreatedAt.UTC(),
		ResolvedAt:    normalizeOptionalTime(m.ResolvedAt),
	}
}

type activityModel struct {
	ActivityID  string    `gorm:"column:activity_id;primaryKey"`
	OrgID       string    `gorm:"column:org_id;index"`
	CampaignID  string    `gorm:"column:campaign_id;index"`
	Kind        string    `gorm:"column:kind"`
	FromStatus  string    `gorm:"column:from_status"`
	ToStatus    string    `gorm:"column:to_status"`
	Probability int       `gorm:"column:probability"`
	ActorID     string    `gorm:"column:actor_id"`
	Note        string    `gorm:"column:note"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (activityModel) TableName() string {
	return "pipeline_activity_log"
}

type settingsModel struct {
	OrgID                string `gorm:"column:org_id;primaryKey"`
	ApprovalFallbackRung int    `gorm:"column:approval_fallback_rung"`
}

func (settingsModel) TableName() string {
	return "pipeline_settings"
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
	return "pipeline_outbox"
}

func copyOrEmpty(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}
	return append([]string(nil), items...)
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
