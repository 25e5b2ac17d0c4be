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

type RejectApprovalCommand struct {
	Tenant     tenant.Context
	CampaignID string
	ActorID    string
	Reason     string
}

type RejectApprovalResult struct {
	PreviousStatus entities.CampaignStatus
	NewStatus      entities.CampaignStatus
	Probability    int
}

// RejectApprovalUseCase sends a pending campaign back down the pipeline. The
// fallback rung is tenant configuration (default proposal/65) and any held
// reservation is released in the same command.
type RejectApprovalUseCase struct {
	Campaigns ports.CampaignRepository
	Approvals ports.ApprovalRepository
	Activity  ports.ActivityRepository
	Settings  ports.SettingsRepository
	Inventory ports.InventoryGateway
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc RejectApprovalUseCase) Execute(ctx context.Context, cmd RejectApprovalCommand) (RejectApprovalResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return RejectApprovalResult{}, err
	}
	campaign, err := uc.Campaigns.GetCampaign(ctx, cmd.Tenant, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return RejectApprovalResult{}, err
	}
	if campaign.Status != entities.CampaignStatusPendingApproval {
		return RejectApprovalResult{}, domainerrors.ErrApprovalNotPending
	}

	settings, err := uc.Settings.GetPipelineSettings(ctx, cmd.Tenant)
	if err != nil {
		return RejectApprovalResult{}, err
	}
	fallback := settings.FallbackRung()
	toStatus, ok := entities.RungForProbability(fallback)
	if !ok {
		return RejectApprovalResult{}, domainerrors.ErrInvalidRung
	}

	now := uc.Clock.Now().UTC()
	if campaign.ApprovalID != "" {
		approval, err := uc.Approvals.GetApproval(ctx, cmd.Tenant, campaign.ApprovalID)
		if err != nil {
			return RejectApprovalResult{}, err
		}
		approval.Status = entities.ApprovalStatusRejected
		approval.Reason = strings.TrimSpace(cmd.Reason)
		approval.ResolvedBy = strings.TrimSpace(cmd.ActorID)
		approval.ResolvedAt = &now
		if err := uc.Approvals.UpdateApproval(ctx, cmd.Tenant, approval); err != nil {
			return RejectApprovalResult{}, err
		}
	}

	if campaign.ReservationID != "" {
		if err := uc.Inventory.ReleaseReservation(ctx, cmd.Tenant, campaign.ReservationID); err != nil {
			return RejectApprovalResult{}, err
		}
	}

	from := campaign.Status
	campaign.Status = toStatus
	campaign.Probability = fallback
	campaign.ReservationID = ""
	campaign.ApprovalID = ""
	campaign.UpdatedAt = now
	if err := uc.Campaigns.UpdateCampaign(ctx, cmd.Tenant, campaign); err != nil {
		return RejectApprovalResult{}, err
	}

	activityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return RejectApprovalResult{}, err
	}
	if err := uc.Activity.AppendActivity(ctx, cmd.Tenant, entities.ActivityLog{
		ActivityID:  activityID,
		OrgID:       cmd.Tenant.OrgID,
		CampaignID:  campaign.CampaignID,
		Kind:        "approval_rejected",
		FromStatus:  from,
		ToStatus:    toStatus,
		Probability: fallback,
		ActorID:     strings.TrimSpace(cmd.ActorID),
		Note:        strings.TrimSpace(cmd.Reason),
		CreatedAt:   now,
	}); err != nil {
		return RejectApprovalResult{}, err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return RejectApprovalResult{}, err
	}
	envelope, err := newCampaignEnvelope(eventID, events.EventCampaignStatusChanged, cmd.Tenant, campaign.CampaignID, cmd.ActorID, now, map[string]any{
		"campaign": map[string]any{
			"campaign_id": campaign.CampaignID,
			"budget":      campaign.Budget,
			"probability": fallback,
			"status":      string(toStatus),
			"prev_status": string(from),
		},
		"reason": strings.TrimSpace(cmd.Reason),
	})
	if err != nil {
		return RejectApprovalResult{}, err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return RejectApprovalResult{}, err
	}

	logger.Info("campaign approval rejected",
		"event", "campaign_approval_rejected",
		"module", "sales-pipeline/campaign-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"campaign_id", campaign.CampaignID,
		"fallback_rung", fallback,
	)
	return RejectApprovalResult{PreviousStatus: from, NewStatus: toStatus, Probability: fallback}, nil
}
