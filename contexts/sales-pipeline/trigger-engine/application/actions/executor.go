package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	application "adops/contexts/sales-pipeline/trigger-engine/application"
	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/trigger-engine/domain/errors"
	"adops/contexts/sales-pipeline/trigger-engine/ports"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

// Executor runs one configured action against one event. Every branch is
// independently fallible; the orchestrator captures failures per action and
// keeps going.
type Executor struct {
	Campaigns ports.CampaignGateway
	Orders    ports.OrderGateway
	Directory ports.Directory
	Notifier  ports.NotificationSink
	Webhooks  ports.WebhookClient
	Logger    *slog.Logger
}

func (e Executor) Run(ctx context.Context, tc tenant.Context, action entities.ActionConfig, event ports.EventEnvelope) error {
	switch action.Kind {
	case entities.ActionSendNotification:
		return e.sendNotification(ctx, tc, *action.Notification, event)
	case entities.ActionCreateReservation:
		return e.createReservation(ctx, tc, *action.Reservation, event)
	case entities.ActionRequireApproval:
		return e.requireApproval(ctx, tc, *action.Approval, event)
	case entities.ActionChangeProbability:
		return e.changeProbability(ctx, tc, *action.Probability, event)
	case entities.ActionTransitionStatus:
		return e.transitionStatus(ctx, tc, *action.Transition, event)
	case entities.ActionEmitWebhook:
		return e.emitWebhook(ctx, tc, *action.Webhook, event)
	default:
		// Unreachable for persisted rules; SaveTrigger rejects unknown kinds.
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// sendNotification fans out to the union of explicit recipients and role
// holders, de-duplicated. A directory failure fails the whole action; the
// sink itself is fire-and-forget.
func (e Executor) sendNotification(ctx context.Context, tc tenant.Context, cfg entities.NotificationConfig, event ports.EventEnvelope) error {
	recipients, err := e.resolveRecipients(ctx, tc, cfg.RecipientIDs, cfg.Roles)
	if err != nil {
		return err
	}
	for _, recipientID := range recipients {
		if err := e.Notifier.Send(ctx, tc, ports.Notification{
			RecipientID: recipientID,
			Subject:     cfg.Subject,
			Body:        cfg.Body,
			Event:       event.EventType,
			EntityID:    event.EntityID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (e Executor) resolveRecipients(ctx context.Context, tc tenant.Context, explicit, roles []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, id := range explicit {
		seen[id] = struct{}{}
	}
	for _, role := range roles {
		holders, err := e.Directory.UsersByRole(ctx, tc, role)
		if err != nil {
			return nil, fmt.Errorf("%w: role %q: %v", domainerrors.ErrRecipientResolution, role, err)
		}
		for _, id := range holders {
			seen[id] = struct{}{}
		}
	}
	recipients := make([]string, 0, len(seen))
	for id := range seen {
		recipients = append(recipients, id)
	}
	sort.Strings(recipients)
	return recipients, nil
}

func (e Executor) createReservation(ctx context.Context, tc tenant.Context, cfg entities.ReservationConfig, event ports.EventEnvelope) error {
	if event.EntityType != events.EntityTypeCampaign {
		return fmt.Errorf("create_reservation applies to campaigns, got %q", event.EntityType)
	}
	reservationID, err := e.Campaigns.CreateReservation(ctx, tc, event.EntityID, cfg.ShowID, cfg.AirDate, cfg.PlacementType, event.ActorID)
	if err != nil {
		return err
	}
	application.ResolveLogger(e.Logger).Info("rule action reserved slot",
		"event", "action_reservation_created",
		"module", "sales-pipeline/trigger-engine",
		"layer", "application",
		"org_id", tc.OrgID,
		"campaign_id", event.EntityID,
		"reservation_id", reservationID,
	)
	return nil
}

func (e Executor) requireApproval(ctx context.Context, tc tenant.Context, cfg entities.ApprovalConfig, event ports.EventEnvelope) error {
	if event.EntityType != events.EntityTypeCampaign {
		return fmt.Errorf("require_approval applies to campaigns, got %q", event.EntityType)
	}
	approvalID, err := e.Campaigns.RequestApproval(ctx, tc, event.EntityID, cfg.RequiredRoles, event.ActorID)
	if err != nil {
		return err
	}
	recipients, err := e.resolveRecipients(ctx, tc, nil, cfg.RequiredRoles)
	if err != nil {
		return err
	}
	for _, recipientID := range recipients {
		if err := e.Notifier.Send(ctx, tc, ports.Notification{
			RecipientID: recipientID,
			Subject:     "approval required",
			Body:        cfg.Reason,
			Event:       event.EventType,
			EntityID:    event.EntityID,
		}); err != nil {
			return err
		}
	}
	application.ResolveLogger(e.Logger).Info("rule action requested approval",
		"event", "action_approval_requested",
		"module", "sales-pipeline/trigger-engine",
		"layer", "application",
		"org_id", tc.OrgID,
		"campaign_id", event.EntityID,
		"approval_id", approvalID,
	)
	return nil
}

func (e Executor) changeProbability(ctx context.Context, tc tenant.Context, cfg entities.ProbabilityConfig, event ports.EventEnvelope) error {
	if event.EntityType != events.EntityTypeCampaign {
		return fmt.Errorf("change_probability applies to campaigns, got %q", event.EntityType)
	}
	_, err := e.Campaigns.ChangeProbability(ctx, tc, event.EntityID, cfg.Operation, cfg.Value, event.ActorID)
	return err
}

func (e Executor) transitionStatus(ctx context.Context, tc tenant.Context, cfg entities.TransitionConfig, event ports.EventEnvelope) error {
	switch event.EntityType {
	case events.EntityTypeCampaign:
		return e.Campaigns.TransitionStatus(ctx, tc, event.EntityID, cfg.ToStatus, event.ActorID, cfg.Note)
	case events.EntityTypeOrder:
		actorRole := cfg.ActorRole
		if actorRole == "" {
			actorRole = event.ActorRole
		}
		return e.Orders.Transition(ctx, tc, event.EntityID, cfg.ToStatus, event.ActorID, actorRole, cfg.Note)
	default:
		return fmt.Errorf("transition_status: unknown entity type %q", event.EntityType)
	}
}

func (e Executor) emitWebhook(ctx context.Context, tc tenant.Context, cfg entities.WebhookConfig, event ports.EventEnvelope) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.Webhooks.Deliver(ctx, cfg.URL, cfg.Secret, body)
}
