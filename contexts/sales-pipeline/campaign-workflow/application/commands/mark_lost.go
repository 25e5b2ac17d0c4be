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

type MarkLostCommand struct {
	Tenant     tenant.Context
	CampaignID string
	ActorID    string
	Reason     string
}

type MarkLostUseCase struct {
	Campaigns ports.CampaignRepository
	Activity  ports.ActivityRepository
	Inventory ports.InventoryGateway
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc MarkLostUseCase) Execute(ctx context.Context, cmd MarkLostCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return err
	}
	campaign, err := uc.Campaigns.GetCampaign(ctx, cmd.Tenant, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}
	if campaign.IsTerminal() {
		return domainerrors.ErrCampaignLost
	}

	if campaign.ReservationID != "" {
		if err := uc.Inventory.ReleaseReservation(ctx, cmd.Tenant, campaign.ReservationID); err != nil {
			return err
		}
	}

	now := uc.Clock.Now().UTC()
	from := campaign.Status
	campaign.Status = entities.CampaignStatusLost
	campaign.ReservationID = ""
	campaign.UpdatedAt = now
	if err := uc.Campaigns.UpdateCampaign(ctx, cmd.Tenant, campaign); err != nil {
		return err
	}

	activityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if err := uc.Activity.AppendActivity(ctx, cmd.Tenant, entities.ActivityLog{
		ActivityID:  activityID,
		OrgID:       cmd.Tenant.OrgID,
		CampaignID:  campaign.CampaignID,
		Kind:        "campaign_lost",
		FromStatus:  from,
		ToStatus:    campaign.Status,
		Probability: campaign.Probability,
		ActorID:     strings.TrimSpace(cmd.ActorID),
		Note:        strings.TrimSpace(cmd.Reason),
		CreatedAt:   now,
	}); err != nil {
		return err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newCampaignEnvelope(eventID, events.EventCampaignStatusChanged, cmd.Tenant, campaign.CampaignID, cmd.ActorID, now, map[string]any{
		"campaign": map[string]any{
			"campaign_id": campaign.CampaignID,
			"budget":      campaign.Budget,
			"probability": campaign.Probability,
			"status":      string(campaign.Status),
			"prev_status": string(from),
		},
		"reason": strings.TrimSpace(cmd.Reason),
	})
	if err != nil {
		return err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return err
	}

	logger.Info("campaign marked lost",
		"event", "campaign_lost",
		"module", "sales-pipeline/campaign-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"campaign_id", campaign.CampaignID,
	)
	return nil
}
