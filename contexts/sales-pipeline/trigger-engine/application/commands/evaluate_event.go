package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	application "adops/contexts/sales-pipeline/trigger-engine/application"
	"adops/contexts/sales-pipeline/trigger-engine/application/actions"
	"adops/contexts/sales-pipeline/trigger-engine/domain/conditions"
	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/trigger-engine/domain/errors"
	"adops/contexts/sales-pipeline/trigger-engine/ports"
	"adops/internal/shared/tenant"
)

// EvaluateEventUseCase is the rule orchestrator. For one delivered event it
// loads the tenant's enabled rules for that event through the cache, sorts
// them priority-descending (stable), and runs them strictly sequentially so a
// higher-priority rule's side effects are visible to lower-priority rules
// that re-read entity state. Rule and action failures are captured into the
// execution log and never escape to the caller.
type EvaluateEventUseCase struct {
	Cache      ports.RuleCache
	Triggers   ports.TriggerRepository
	Executions ports.ExecutionLogStore
	Executor   actions.Executor
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc EvaluateEventUseCase) Execute(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(uc.Logger)
	tc := tenant.New(event.OrgID)
	if err := tc.Validate(); err != nil {
		return err
	}

	rules, err := uc.Cache.GetEnabledByEvent(ctx, tc, event.EventType)
	if err != nil {
		return err
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	for _, rule := range rules {
		if err := uc.evaluateRule(ctx, tc, rule, event); err != nil {
			// Only infrastructure failures surface here; rule-level
			// failures are already in the execution log.
			logger.Error("rule evaluation aborted",
				"event", "rule_evaluation_aborted",
				"module", "sales-pipeline/trigger-engine",
				"layer", "application",
				"org_id", tc.OrgID,
				"trigger_id", rule.TriggerID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

func (uc EvaluateEventUseCase) evaluateRule(ctx context.Context, tc tenant.Context, rule entities.Trigger, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(uc.Logger)

	// Idempotency gate. Re-delivery of the same (rule, entity, event) is a
	// pure no-op, not a duplicate side effect.
	seen, err := uc.Executions.HasExecution(ctx, tc, rule.TriggerID, event.EntityType, event.EntityID, event.EventType)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	now := uc.Clock.Now().UTC()
	executionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	execution := entities.Execution{
		ExecutionID: executionID,
		OrgID:       tc.OrgID,
		TriggerID:   rule.TriggerID,
		EntityType:  event.EntityType,
		EntityID:    event.EntityID,
		Event:       event.EventType,
		CreatedAt:   now,
	}

	if rule.Condition != nil && !conditions.Evaluate(*rule.Condition, event.Data) {
		execution.Status = entities.ExecutionSkipped
		execution.Message = "condition evaluated false"
		return uc.appendExecution(ctx, tc, execution)
	}

	// Actions run in list order. One failing action does not stop the rest,
	// but marks the whole execution failed.
	var failures []string
	for i, action := range rule.Actions {
		if err := uc.runAction(ctx, tc, action, event); err != nil {
			failures = append(failures, fmt.Sprintf("actions[%d] %s: %v", i, action.Kind, err))
		}
	}

	if len(failures) > 0 {
		execution.Status = entities.ExecutionFailed
		execution.Message = strings.Join(failures, "; ")
	} else {
		execution.Status = entities.ExecutionSuccess
	}
	if err := uc.appendExecution(ctx, tc, execution); err != nil {
		return err
	}
	if err := uc.Triggers.RecordExecution(ctx, tc, rule.TriggerID, now); err != nil {
		return err
	}

	logger.Info("rule executed",
		"event", "rule_executed",
		"module", "sales-pipeline/trigger-engine",
		"layer", "application",
		"org_id", tc.OrgID,
		"trigger_id", rule.TriggerID,
		"trigger_event", event.EventType,
		"entity_id", event.EntityID,
		"status", string(execution.Status),
		"action_count", len(rule.Actions),
		"failure_count", len(failures),
	)
	return nil
}

// runAction fences each executor call so a panicking action is recorded as a
// failure instead of taking the consumer down.
func (uc EvaluateEventUseCase) runAction(ctx context.Context, tc tenant.Context, action entities.ActionConfig, event ports.EventEnvelope) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("action panicked: %v", recovered)
		}
	}()
	return uc.Executor.Run(ctx, tc, action, event)
}

func (uc EvaluateEventUseCase) appendExecution(ctx context.Context, tc tenant.Context, execution entities.Execution) error {
	err := uc.Executions.AppendExecution(ctx, tc, execution)
	if errors.Is(err, domainerrors.ErrExecutionExists) {
		// Lost a race with a concurrent delivery; the other row stands.
		return nil
	}
	return err
}
