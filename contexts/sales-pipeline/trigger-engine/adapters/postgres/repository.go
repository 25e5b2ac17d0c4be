package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"adops/contexts/sales-pipeline/trigger-engine/domain/conditions"
	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/trigger-engine/domain/errors"
	"adops/internal/shared/tenant"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) SaveTrigger(ctx context.Context, tc tenant.Context, trigger entities.Trigger) error {
	trigger.OrgID = tc.OrgID
	row, err := triggerModelFromEntity(trigger)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "trigger_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "event", "condition", "actions", "enabled", "priority", "updated_at",
			}),
		}).
		Create(&row).
		Error
}

func (r *Repository) GetTrigger(ctx context.Context, tc tenant.Context, triggerID string) (entities.Trigger, error) {
	var row triggerModel
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND trigger_id = ?", tc.OrgID, strings.TrimSpace(triggerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Trigger{}, domainerrors.ErrTriggerNotFound
		}
		return entities.Trigger{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListTriggers(ctx context.Context, tc tenant.Context) ([]entities.Trigger, error) {
	var rows []triggerModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", tc.OrgID).
		Order("priority DESC, created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return triggersFromModels(rows)
}

func (r *Repository) ListEnabledByEvent(ctx context.Context, tc tenant.Context, event string) ([]entities.Trigger, error) {
	var rows []triggerModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND event = ? AND enabled = TRUE", tc.OrgID, strings.TrimSpace(event)).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return triggersFromModels(rows)
}

func (r *Repository) RecordExecution(ctx context.Context, tc tenant.Context, triggerID string, executedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&triggerModel{}).
		Where("org_id = ? AND trigger_id = ?", tc.OrgID, strings.TrimSpace(triggerID)).
		Updates(map[string]any{
			"execution_count":  gorm.Expr("execution_count + 1"),
			"last_executed_at": executedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTriggerNotFound
	}
	return nil
}

func (r *Repository) HasExecution(ctx context.Context, tc tenant.Context, triggerID, entityType, entityID, event string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&executionModel{}).
		Where("org_id = ? AND trigger_id = ? AND entity_type = ? AND entity_id = ? AND event = ?",
			tc.OrgID, triggerID, entityType, entityID, event).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) AppendExecution(ctx context.Context, tc tenant.Context, execution entities.Execution) error {
	execution.OrgID = tc.OrgID
	row := executionModel{
		ExecutionID: strings.TrimSpace(execution.ExecutionID),
		OrgID:       execution.OrgID,
		TriggerID:   strings.TrimSpace(execution.TriggerID),
		EntityType:  execution.EntityType,
		EntityID:    execution.EntityID,
		Event:       execution.Event,
		Status:      string(execution.Status),
		Message:     execution.Message,
		CreatedAt:   execution.CreatedAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "org_id"}, {Name: "trigger_id"}, {Name: "entity_type"}, {Name: "entity_id"}, {Name: "event"},
			},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrExecutionExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrExecutionExists
	}
	return nil
}

func (r *Repository) ListExecutions(ctx context.Context, tc tenant.Context, triggerID string) ([]entities.Execution, error) {
	tx := r.db.WithContext(ctx).Model(&executionModel{}).Where("org_id = ?", tc.OrgID)
	if strings.TrimSpace(triggerID) != "" {
		tx = tx.Where("trigger_id = ?", strings.TrimSpace(triggerID))
	}
	var rows []executionModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Execution, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Execution{
			ExecutionID: row.ExecutionID,
			OrgID:       row.OrgID,
			TriggerID:   row.TriggerID,
			EntityType:  row.EntityType,
			EntityID:    row.EntityID,
			Event:       row.Event,
			Status:      entities.ExecutionStatus(row.Status),
			Message:     row.Message,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

// UsersByRole backs the notification directory from the role-membership table.
func (r *Repository) UsersByRole(ctx context.Context, tc tenant.Context, role string) ([]string, error) {
	var userIDs []string
	err := r.db.WithContext(ctx).
		Model(&roleMemberModel{}).
		Where("org_id = ? AND role = ?", tc.OrgID, strings.TrimSpace(role)).
		Pluck("user_id", &userIDs).
		Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

type triggerModel struct {
	TriggerID      string     `gorm:"column:trigger_id;primaryKey"`
	OrgID          string     `gorm:"column:org_id;index"`
	Name           string     `gorm:"column:name"`
	Event          string     `gorm:"column:event;index"`
	Condition      []byte     `gorm:"column:condition;type:jsonb"`
	Actions        []byte     `gorm:"column:actions;type:jsonb"`
	Enabled        bool       `gorm:"column:enabled"`
	Priority       int        `gorm:"column:priority"`
	ExecutionCount int        `gorm:"column:execution_count"`
	LastExecutedAt *time.Time `gorm:"column:last_executed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (triggerModel) TableName() string {
	return "pipeline_triggers"
}

func triggerModelFromEntity(item entities.Trigger) (triggerModel, error) {
	var condition []byte
	if item.Condition != nil {
		encoded, err := json.Marshal(item.Condition)
		if err != nil {
			return triggerModel{}, err
		}
		condition = encoded
	}
	actions, err := json.Marshal(item.Actions)
	if err != nil {
		return triggerModel{}, err
	}
	return triggerModel{
		TriggerID:      strings.TrimSpace(item.TriggerID),
		OrgID:          strings.TrimSpace(item.OrgID),
		Name:           strings.TrimSpace(item.Name),
		Event:          strings.TrimSpace(item.Event),
		Condition:      condition,
		Actions:        actions,
		Enabled:        item.Enabled,
		Priority:       item.Priority,
		ExecutionCount: item.ExecutionCount,
		LastExecutedAt: normalizeOptionalTime(item.LastExecutedAt),
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}, nil
}

func (m triggerModel) toEntity() (entities.Trigger, error) {
	var condition *conditions.Node
	if len(m.Condition) > 0 {
		var node conditions.Node
		if err := json.Unmarshal(m.Condition, &node); err != nil {
			return entities.Trigger{}, err
		}
		condition = &node
	}
	var actions []entities.ActionConfig
	if len(m.Actions) > 0 {
		if err := json.Unmarshal(m.Actions, &actions); err != nil {
			return entities.Trigger{}, err
		}
	}
	return entities.Trigger{
		TriggerID:      m.TriggerID,
		OrgID:          m.OrgID,
		Name:           m.Name,
		Event:          m.Event,
		Condition:      condition,
		Actions:        actions,
		Enabled:        m.Enabled,
		Priority:       m.Priority,
		ExecutionCount: m.ExecutionCount,
		LastExecutedAt: normalizeOptionalTime(m.LastExecutedAt),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}, nil
}

func triggersFromModels(rows []triggerModel) ([]entities.Trigger, error) {
	items := make([]entities.Trigger, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

type executionModel struct {
	ExecutionID string    `gorm:"column:execution_id;primaryKey"`
	OrgID       string    `gorm:"column:org_id;uniqueIndex:idx_execution_key"`
	TriggerID   string    `gorm:"column:trigger_id;uniqueIndex:idx_execution_key"`
	EntityType  string    `gorm:"column:entity_type;uniqueIndex:idx_execution_key"`
	EntityID    string    `gorm:"column:entity_id;uniqueIndex:idx_execution_key"`
	Event       string    `gorm:"column:event;uniqueIndex:idx_execution_key"`
	Status      string    `gorm:"column:status"`
	Message     string    `gorm:"column:message"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (executionModel) TableName() string {
	return "pipeline_trigger_executions"
}

type roleMemberModel struct {
	OrgID  string `gorm:"column:org_id;primaryKey"`
	Role   string `gorm:"column:role;primaryKey"`
	UserID string `gorm:"column:user_id;primaryKey"`
}

func (roleMemberModel) TableName() string {
	return "pipeline_role_members"
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
