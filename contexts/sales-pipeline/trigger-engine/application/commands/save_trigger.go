package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "adops/contexts/sales-pipeline/trigger-engine/application"
	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/trigger-engine/domain/errors"
	"adops/contexts/sales-pipeline/trigger-engine/ports"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

type SaveTriggerCommand struct {
	Tenant  tenant.Context
	Trigger entities.Trigger
}

type SaveTriggerResult struct {
	Trigger entities.Trigger
}

// SaveTriggerUseCase creates or updates a rule. Validation happens here, with
// field-level messages, so the evaluator never meets a malformed rule. The
// tenant's rule cache is invalidated synchronously before returning.
type SaveTriggerUseCase struct {
	Triggers ports.TriggerRepository
	Cache    ports.RuleCache
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc SaveTriggerUseCase) Execute(ctx context.Context, cmd SaveTriggerCommand) (SaveTriggerResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return SaveTriggerResult{}, err
	}

	trigger := cmd.Trigger
	trigger.Name = strings.TrimSpace(trigger.Name)
	trigger.Event = strings.TrimSpace(trigger.Event)
	trigger.OrgID = cmd.Tenant.OrgID

	if err := trigger.ValidateBasics(); err != nil {
		return SaveTriggerResult{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidTriggerInput, err)
	}
	if !events.IsSupportedEvent(trigger.Event) {
		return SaveTriggerResult{}, fmt.Errorf("%w: event: %q", domainerrors.ErrUnsupportedEvent, trigger.Event)
	}

	now := uc.Clock.Now().UTC()
	if strings.TrimSpace(trigger.TriggerID) == "" {
		triggerID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return SaveTriggerResult{}, err
		}
		trigger.TriggerID = triggerID
		trigger.CreatedAt = now
	} else {
		existing, err := uc.Triggers.GetTrigger(ctx, cmd.Tenant, trigger.TriggerID)
		if err != nil {
			return SaveTriggerResult{}, err
		}
		trigger.CreatedAt = existing.CreatedAt
		trigger.ExecutionCount = existing.ExecutionCount
		trigger.LastExecutedAt = existing.LastExecutedAt
	}
	trigger.UpdatedAt = now

	if err := uc.Triggers.SaveTrigger(ctx, cmd.Tenant, trigger); err != nil {
		return SaveTriggerResult{}, err
	}
	uc.Cache.Invalidate(cmd.Tenant.OrgID)

	logger.Info("trigger saved",
		"event", "trigger_saved",
		"module", "sales-pipeline/trigger-engine",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"trigger_id", trigger.TriggerID,
		"trigger_event", trigger.Event,
		"enabled", trigger.Enabled,
		"priority", trigger.Priority,
	)
	return SaveTriggerResult{Trigger: trigger}, nil
}

type DisableTriggerCommand struct {
	Tenant    tenant.Context
	TriggerID string
}

// DisableTriggerUseCase is the delete path. Rules are disabled, never removed,
// so execution rows keep a valid trigger reference.
type DisableTriggerUseCase struct {
	Triggers ports.TriggerRepository
	Cache    ports.RuleCache
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc DisableTriggerUseCase) Execute(ctx context.Context, cmd DisableTriggerCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return err
	}
	trigger, err := uc.Triggers.GetTrigger(ctx, cmd.Tenant, strings.TrimSpace(cmd.TriggerID))
	if err != nil {
		return err
	}
	if !trigger.Enabled {
		return nil
	}
	trigger.Enabled = false
	trigger.UpdatedAt = uc.Clock.Now().UTC()
	if err := uc.Triggers.SaveTrigger(ctx, cmd.Tenant, trigger); err != nil {
		return err
	}
	uc.Cache.Invalidate(cmd.Tenant.OrgID)

	logger.Info("trigger disabled",
		"event", "trigger_disabled",
		"module", "sales-pipeline/trigger-engine",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"trigger_id", trigger.TriggerID,
	)
	return nil
}
