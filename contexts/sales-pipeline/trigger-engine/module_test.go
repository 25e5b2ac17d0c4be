package triggerengine_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	campaignworkflow "adops/contexts/sales-pipeline/campaign-workflow"
	campaigncommands "adops/contexts/sales-pipeline/campaign-workflow/application/commands"
	campaignentities "adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	orderworkflow "adops/contexts/sales-pipeline/order-workflow"
	triggerengine "adops/contexts/sales-pipeline/trigger-engine"
	"adops/contexts/sales-pipeline/trigger-engine/adapters/memory"
	"adops/contexts/sales-pipeline/trigger-engine/application/commands"
	"adops/contexts/sales-pipeline/trigger-engine/domain/conditions"
	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/trigger-engine/domain/errors"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

var testTenant = tenant.New("org-1")

type fixture struct {
	triggers  triggerengine.Module
	campaigns campaignworkflow.Module
	orders    orderworkflow.Module
	sink      *memory.SinkRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	orders := orderworkflow.NewInMemoryModule(nil)
	orderGateway := orderworkflow.Gateway{Module: orders}
	campaigns := campaignworkflow.NewInMemoryModule(orderGateway, orderGateway, nil, nil)
	sink := memory.NewSinkRecorder()
	triggers := triggerengine.NewInMemoryModule(
		campaignworkflow.Gateway{Module: campaigns},
		orderGateway,
		sink,
		nil,
		0,
		nil,
	)
	return fixture{triggers: triggers, campaigns: campaigns, orders: orders, sink: sink}
}

func saveTrigger(t *testing.T, f fixture, trigger entities.Trigger) entities.Trigger {
	t.Helper()
	result, err := f.triggers.SaveTrigger.Execute(context.Background(), commands.SaveTriggerCommand{
		Tenant:  testTenant,
		Trigger: trigger,
	})
	if err != nil {
		t.Fatalf("save trigger: %v", err)
	}
	return result.Trigger
}

func notifyAction(recipient, subject string) entities.ActionConfig {
	return entities.ActionConfig{
		Kind: entities.ActionSendNotification,
		Notification: &entities.NotificationConfig{
			RecipientIDs: []string{recipient},
			Subject:      subject,
			Body:         "see pipeline",
		},
	}
}

func statusChangedEvent(entityID string, payload map[string]any) events.Envelope {
	data, _ := json.Marshal(payload)
	return events.Envelope{
		EventID:    "evt-" + entityID,
		EventType:  events.EventCampaignStatusChanged,
		OrgID:      testTenant.OrgID,
		ActorID:    "user-1",
		EntityType: events.EntityTypeCampaign,
		EntityID:   entityID,
		Data:       data,
	}
}

func TestSaveTriggerRejectsUnsupportedEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.triggers.SaveTrigger.Execute(context.Background(), commands.SaveTriggerCommand{
		Tenant: testTenant,
		Trigger: entities.Trigger{
			Name:    "bad event",
			Event:   "campaign_exploded",
			Actions: []entities.ActionConfig{notifyAction("user-1", "hi")},
		},
	})
	if !errors.Is(err, domainerrors.ErrUnsupportedEvent) {
		t.Fatalf("expected ErrUnsupportedEvent, got %v", err)
	}
}

func TestSaveTriggerRejectsInvalidActionConfig(t *testing.T) {
	f := newFixture(t)
	_, err := f.triggers.SaveTrigger.Execute(context.Background(), commands.SaveTriggerCommand{
		Tenant: testTenant,
		Trigger: entities.Trigger{
			Name:  "webhook without url",
			Event: events.EventCampaignStatusChanged,
			Actions: []entities.ActionConfig{{
				Kind:    entities.ActionEmitWebhook,
				Webhook: &entities.WebhookConfig{URL: "not a url", Secret: "s"},
			}},
		},
	})
	if !errors.Is(err, domainerrors.ErrInvalidTriggerInput) {
		t.Fatalf("expected ErrInvalidTriggerInput, got %v", err)
	}
}

func TestRuleFiresAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trigger := saveTrigger(t, f, entities.Trigger{
		Name:    "notify on status change",
		Event:   events.EventCampaignStatusChanged,
		Enabled: true,
		Actions: []entities.ActionConfig{notifyAction("user-9", "campaign moved")},
	})

	event := statusChangedEvent("cmp-1", map[string]any{"campaign": map[string]any{"budget": 5000}})
	if err := f.triggers.EvaluateEvent.Execute(ctx, event); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := len(f.sink.Sent()); got != 1 {
		t.Fatalf("expected 1 notification, got %d", got)
	}

	// Same (trigger, entity, event) delivered again: a pure no-op.
	if err := f.triggers.EvaluateEvent.Execute(ctx, event); err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if got := len(f.sink.Sent()); got != 1 {
		t.Fatalf("re-delivery must not duplicate side effects, got %d notifications", got)
	}

	execs, err := f.triggers.ListExecutions.Execute(ctx, testTenant, trigger.TriggerID)
	if err != nil {
		t.Fatalf("list executions: %v", err)
	}
	if len(execs) != 1 || execs[0].Status != entities.ExecutionSuccess {
		t.Fatalf("expected one success execution, got %+v", execs)
	}

	stored, err := f.triggers.GetTrigger.Execute(ctx, testTenant, trigger.TriggerID)
	if err != nil {
		t.Fatalf("get trigger: %v", err)
	}
	if stored.ExecutionCount != 1 {
		t.Fatalf("execution count = %d, want 1", stored.ExecutionCount)
	}
}

func TestRulesRunPriorityDescending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	saveTrigger(t, f, entities.Trigger{
		Name:     "low priority",
		Event:    events.EventCampaignStatusChanged,
		Enabled:  true,
		Priority: 100,
		Actions:  []entities.ActionConfig{notifyAction("user-1", "second")},
	})
	saveTrigger(t, f, entities.Trigger{
		Name:     "high priority",
		Event:    events.EventCampaignStatusChanged,
		Enabled:  true,
		Priority: 200,
		Actions:  []entities.ActionConfig{notifyAction("user-1", "first")},
	})

	if err := f.triggers.EvaluateEvent.Execute(ctx, statusChangedEvent("cmp-2", nil)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	sent := f.sink.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sent))
	}
	if sent[0].Subject != "first" || sent[1].Subject != "second" {
		t.Fatalf("priority order violated: %q then %q", sent[0].Subject, sent[1].Subject)
	}
}

func TestConditionGateSkipsRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trigger := saveTrigger(t, f, entities.Trigger{
		Name:    "big budgets only",
		Event:   events.EventCampaignStatusChanged,
		Enabled: true,
		Condition: &conditions.Node{Any: []conditions.Node{
			{Field: "campaign.budget", Operator: conditions.OpGt, Value: 10000},
			{Field: "campaign.budget", Operator: conditions.OpGte, Value: 5000},
		}},
		Actions: []entities.ActionConfig{notifyAction("user-1", "big budget")},
	})

	if err := f.triggers.EvaluateEvent.Execute(ctx, statusChangedEvent("cmp-low", map[string]any{
		"campaign": map[string]any{"budget": 400},
	})); err != nil {
		t.Fatalf("evaluate low: %v", err)
	}
	if len(f.sink.Sent()) != 0 {
		t.Fatalf("condition false must not run actions")
	}
	execs, err := f.triggers.ListExecutions.Execute(ctx, testTenant, trigger.TriggerID)
	if err != nil {
		t.Fatalf("list executions: %v", err)
	}
	if len(execs) != 1 || execs[0].Status != entities.ExecutionSkipped {
		t.Fatalf("expected one skipped execution, got %+v", execs)
	}

	// The or-branch makes 5000 pass via gte even though gt 10000 fails.
	if err := f.triggers.EvaluateEvent.Execute(ctx, statusChangedEvent("cmp-high", map[string]any{
		"campaign": map[string]any{"budget": 5000},
	})); err != nil {
		t.Fatalf("evaluate high: %v", err)
	}
	if len(f.sink.Sent()) != 1 {
		t.Fatalf("condition true should run actions")
	}
}

func TestRoleRecipientsResolvedThroughDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.triggers.Store.SetRoleMembers(testTenant.OrgID, "manager", []string{"user-m1", "user-m2"})

	saveTrigger(t, f, entities.Trigger{
		Name:    "notify managers",
		Event:   events.EventCampaignStatusChanged,
		Enabled: true,
		Actions: []entities.ActionConfig{{
			Kind: entities.ActionSendNotification,
			Notification: &entities.NotificationConfig{
				RecipientIDs: []string{"user-m1"},
				Roles:        []string{"manager"},
				Subject:      "heads up",
			},
		}},
	})

	if err := f.triggers.EvaluateEvent.Execute(ctx, statusChangedEvent("cmp-3", nil)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	sent := f.sink.Sent()
	// Explicit recipient overlaps a role holder; the union dedupes.
	if len(sent) != 2 {
		t.Fatalf("expected 2 deduped recipients, got %d", len(sent))
	}
	if sent[0].RecipientID != "user-m1" || sent[1].RecipientID != "user-m2" {
		t.Fatalf("unexpected recipients %+v", sent)
	}
}

func TestChangeProbabilityActionMovesCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.campaigns.CreateCampaign.Execute(ctx, campaigncommands.CreateCampaignCommand{
		Tenant:       testTenant,
		Name:         "Winter Push",
		Budget:       12000,
		AdvertiserID: "adv-1",
		ActorID:      "user-1",
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	saveTrigger(t, f, entities.Trigger{
		Name:    "bump on signal",
		Event:   events.EventBudgetThresholdCrossed,
		Enabled: true,
		Actions: []entities.ActionConfig{{
			Kind:        entities.ActionChangeProbability,
			Probability: &entities.ProbabilityConfig{Operation: "add", Value: 25},
		}},
	})

	event := statusChangedEvent(created.Campaign.CampaignID, nil)
	event.EventType = events.EventBudgetThresholdCrossed
	if err := f.triggers.EvaluateEvent.Execute(ctx, event); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	campaign, err := f.campaigns.GetCampaign.Execute(ctx, testTenant, created.Campaign.CampaignID)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if campaign.Probability != campaignentities.RungQualified {
		t.Fatalf("10+25 should snap to 35, got %d", campaign.Probability)
	}
}

func TestFailingActionIsCapturedNotPropagated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trigger := saveTrigger(t, f, entities.Trigger{
		Name:    "acts on missing campaign",
		Event:   events.EventCampaignStatusChanged,
		Enabled: true,
		Actions: []entities.ActionConfig{
			{
				Kind:        entities.ActionChangeProbability,
				Probability: &entities.ProbabilityConfig{Operation: "add", Value: 10},
			},
			notifyAction("user-1", "still sent"),
		},
	})

	if err := f.triggers.EvaluateEvent.Execute(ctx, statusChangedEvent("cmp-missing", nil)); err != nil {
		t.Fatalf("evaluate must not surface action failures: %v", err)
	}

	execs, err := f.triggers.ListExecutions.Execute(ctx, testTenant, trigger.TriggerID)
	if err != nil {
		t.Fatalf("list executions: %v", err)
	}
	if len(execs) != 1 || execs[0].Status != entities.ExecutionFailed {
		t.Fatalf("expected one failed execution, got %+v", execs)
	}
	if execs[0].Message == "" {
		t.Fatalf("failure message should name the failing action")
	}
	// The action after the failing one still ran.
	if len(f.sink.Sent()) != 1 {
		t.Fatalf("later actions should still run, got %d notifications", len(f.sink.Sent()))
	}
}

func TestDisableTriggerStopsEvaluation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trigger := saveTrigger(t, f, entities.Trigger{
		Name:    "short lived",
		Event:   events.EventCampaignStatusChanged,
		Enabled: true,
		Actions: []entities.ActionConfig{notifyAction("user-1", "hello")},
	})

	if err := f.triggers.EvaluateEvent.Execute(ctx, statusChangedEvent("cmp-a", nil)); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if err := f.triggers.DisableTrigger.Execute(ctx, commands.DisableTriggerCommand{
		Tenant:    testTenant,
		TriggerID: trigger.TriggerID,
	}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	// Disable invalidates the rule cache synchronously, so a fresh entity
	// sees the change immediately.
	if err := f.triggers.EvaluateEvent.Execute(ctx, statusChangedEvent("cmp-b", nil)); err != nil {
		t.Fatalf("evaluate after disable: %v", err)
	}
	if got := len(f.sink.Sent()); got != 1 {
		t.Fatalf("disabled trigger must not fire, got %d notifications", got)
	}
}
