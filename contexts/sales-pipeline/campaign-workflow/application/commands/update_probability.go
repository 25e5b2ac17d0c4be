package commands

import (
	"context"
	"log/slog"
	"strings"

	application "adops/contexts/sales-pipeline/campaign-workflow/application"
	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/campaign-workflow/domain/errors"
	"adops/contexts/sales-pipeline/campaign-workflow/ports"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

type ProbabilityOperation string

const (
	ProbabilityOpSet      ProbabilityOperation = "set"
	ProbabilityOpAdd      ProbabilityOperation = "add"
	ProbabilityOpSubtract ProbabilityOperation = "subtract"
)

type UpdateProbabilityCommand struct {
	Tenant     tenant.Context
	CampaignID string
	Operation  ProbabilityOperation
	Value      int
	ActorID    string
	Note       string
}

type UpdateProbabilityResult struct {
	PreviousStatus entities.CampaignStatus
	NewStatus      entities.CampaignStatus
	Probability    int
}

type UpdateProbabilityUseCase struct {
	Campaigns ports.CampaignRepository
	Activity  ports.ActivityRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc UpdateProbabilityUseCase) Execute(ctx context.Context, cmd UpdateProbabilityCommand) (UpdateProbabilityResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return UpdateProbabilityResult{}, err
	}
	campaign, err := uc.Campaigns.GetCampaign(ctx, cmd.Tenant, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return UpdateProbabilityResult{}, err
	}
	if campaign.IsTerminal() {
		return UpdateProbabilityResult{}, domainerrors.ErrCampaignLost
	}
	switch campaign.Status {
	case entities.CampaignStatusApproved, entities.CampaignStatusActive, entities.CampaignStatusBooked:
		return UpdateProbabilityResult{}, domainerrors.ErrAlreadyApproved
	case entities.CampaignStatusPendingApproval:
		return UpdateProbabilityResult{}, domainerrors.ErrApprovalPending
	}

	target := campaign.Probability
	switch cmd.Operation {
	case ProbabilityOpSet:
		// Explicit pipeline moves must name a rung; only arithmetic from
		// rule actions snaps silently.
		if !entities.IsRung(cmd.Value) {
			return UpdateProbabilityResult{}, domainerrors.ErrInvalidRung
		}
		target = cmd.Value
	case ProbabilityOpAdd:
		target = entities.SnapToRung(campaign.Probability + cmd.Value)
	case ProbabilityOpSubtract:
		target = entities.SnapToRung(campaign.Probability - cmd.Value)
	default:
		return UpdateProbabilityResult{}, domainerrors.ErrInvalidCampaignInput
	}

	toStatus, ok := entities.RungForProbability(target)
	if !ok {
		return UpdateProbabilityResult{}, domainerrors.ErrInvalidRung
	}

	now := uc.Clock.Now().UTC()
	from := campaign.Status
	fromProbability := campaign.Probability
	campaign.Status = toStatus
	campaign.Probability = target
	campaign.UpdatedAt = now
	if err := uc.Campaigns.UpdateCampaign(ctx, cmd.Tenant, campaign); err != nil {
		return UpdateProbabilityResult{}, err
	}

	activityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return UpdateProbabilityResult{}, err
	}
	if err := uc.Activity.AppendActivity(ctx, cmd.Tenant, entities.ActivityLog{
		ActivityID:  activityID,
		OrgID:       cmd.Tenant.OrgID,
		CampaignID:  campaign.CampaignID,
		Kind:        "probability_updated",
		FromStatus:  from,
		ToStatus:    toStatus,
		Probability: target,
		ActorID:     strings.TrimSpace(cmd.ActorID),
		Note:        strings.TrimSpace(cmd.Note),
		CreatedAt:   now,
	}); err != nil {
		return UpdateProbabilityResult{}, err
	}

	data := map[string]any{
		"campaign": map[string]any{
			"campaign_id":      campaign.CampaignID,
			"budget":           campaign.Budget,
			"probability":      target,
			"prev_probability": fromProbability,
			"status":           string(toStatus),
			"prev_status":      string(from),
		},
	}
	for _, eventType := range []string{events.EventProbabilityUpdated, events.EventCampaignStatusChanged} {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return UpdateProbabilityResult{}, err
		}
		envelope, err := newCampaignEnvelope(eventID, eventType, cmd.Tenant, campaign.CampaignID, cmd.ActorID, now, data)
		if err != nil {
			return UpdateProbabilityResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return UpdateProbabilityResult{}, err
		}
	}

	logger.Info("campaign probability updated",
		"event", "campaign_probability_updated",
		"module", "sales-pipeline/campaign-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"campaign_id", campaign.CampaignID,
		"from_status", string(from),
		"to_status", string(toStatus),
		"probability", target,
	)
	return UpdateProbabilityResult{PreviousStatus: from, NewStatus: toStatus, Probability: target}, nil
}
