package queries

import (
	"context"
	"strings"

	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	"adops/contexts/sales-pipeline/trigger-engine/ports"
	"adops/internal/shared/tenant"
)

type ListTriggersUseCase struct {
	Triggers ports.TriggerRepository
}

func (uc ListTriggersUseCase) Execute(ctx context.Context, tc tenant.Context) ([]entities.Trigger, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return uc.Triggers.ListTriggers(ctx, tc)
}

type GetTriggerUseCase struct {
	Triggers ports.TriggerRepository
}

func (uc GetTriggerUseCase) Execute(ctx context.Context, tc tenant.Context, triggerID string) (entities.Trigger, error) {
	if err := tc.Validate(); err != nil {
		return entities.Trigger{}, err
	}
	return uc.Triggers.GetTrigger(ctx, tc, strings.TrimSpace(triggerID))
}

type ListExecutionsUseCase struct {
	Executions ports.ExecutionLogStore
}

func (uc ListExecutionsUseCase) Execute(ctx context.Context, tc tenant.Context, triggerID string) ([]entities.Execution, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return uc.Executions.ListExecutions(ctx, tc, strings.TrimSpace(triggerID))
}
