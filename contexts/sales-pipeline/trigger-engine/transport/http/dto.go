package http

import (
	"time"

	"adops/contexts/sales-pipeline/trigger-engine/domain/conditions"
	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SaveTriggerRequest struct {
	TriggerID string                  `json:"trigger_id,omitempty"`
	Name      string                  `json:"name"`
	Event     string                  `json:"event"`
	Condition *conditions.Node        `json:"condition,omitempty"`
	Actions   []entities.ActionConfig `json:"actions"`
	Enabled   bool                    `json:"enabled"`
	Priority  int                     `json:"priority"`
}

type TriggerResponse struct {
	TriggerID      string                  `json:"trigger_id"`
	Name           string                  `json:"name"`
	Event          string                  `json:"event"`
	Condition      *conditions.Node        `json:"condition,omitempty"`
	Actions        []entities.ActionConfig `json:"actions"`
	Enabled        bool                    `json:"enabled"`
	Priority       int                     `json:"priority"`
	ExecutionCount int                     `json:"execution_count"`
	LastExecutedAt *time.Time              `json:"last_executed_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func TriggerResponseFromEntity(item entities.Trigger) TriggerResponse {
	return TriggerResponse{
		TriggerID:      item.TriggerID,
		Name:           item.Name,
		Event:          item.Event,
		Condition:      item.Condition,
		Actions:        item.Actions,
		Enabled:        item.Enabled,
		Priority:       item.Priority,
		ExecutionCount: item.ExecutionCount,
		LastExecutedAt: item.LastExecutedAt,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}

type ExecutionResponse struct {
	ExecutionID string    `json:"execution_id"`
	TriggerID   string    `json:"trigger_id"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Event       string    `json:"event"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func ExecutionResponseFromEntity(item entities.Execution) ExecutionResponse {
	return ExecutionResponse{
		ExecutionID: item.ExecutionID,
		TriggerID:   item.TriggerID,
		EntityType:  item.EntityType,
		EntityID:    item.EntityID,
		Event:       item.Event,
		Status:      string(item.Status),
		Message:     item.Message,
		CreatedAt:   item.CreatedAt,
	}
}
