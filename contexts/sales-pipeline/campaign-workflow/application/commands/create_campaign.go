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

type CreateCampaignCommand struct {
	Tenant       tenant.Context
	Name         string
	Budget       float64
	AdvertiserID string
	AgencyID     string
	ActorID      string
}

type CreateCampaignResult struct {
	Campaign entities.Campaign
}

type CreateCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Activity  ports.ActivityRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (CreateCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return CreateCampaignResult{}, err
	}

	now := uc.Clock.Now().UTC()
	campaignID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateCampaignResult{}, err
	}

	campaign := entities.Campaign{
		CampaignID:   campaignID,
		OrgID:        cmd.Tenant.OrgID,
		Name:         strings.TrimSpace(cmd.Name),
		Status:       entities.CampaignStatusDraft,
		Probability:  entities.RungDraft,
		Budget:       cmd.Budget,
		AdvertiserID: strings.TrimSpace(cmd.AdvertiserID),
		AgencyID:     strings.TrimSpace(cmd.AgencyID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !campaign.ValidateBasics() {
		return CreateCampaignResult{}, domainerrors.ErrInvalidCampaignInput
	}
	if err := uc.Campaigns.CreateCampaign(ctx, cmd.Tenant, campaign); err != nil {
		return CreateCampaignResult{}, err
	}

	activityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateCampaignResult{}, err
	}
	if err := uc.Activity.AppendActivity(ctx, cmd.Tenant, entities.ActivityLog{
		ActivityID:  activityID,
		OrgID:       cmd.Tenant.OrgID,
		CampaignID:  campaignID,
		Kind:        "campaign_created",
		ToStatus:    campaign.Status,
		Probability: campaign.Probability,
		ActorID:     strings.TrimSpace(cmd.ActorID),
		CreatedAt:   now,
	}); err != nil {
		return CreateCampaignResult{}, err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateCampaignResult{}, err
	}
	envelope, err := newCampaignEnvelope(eventID, events.EventCampaignCreated, cmd.Tenant, campaignID, cmd.ActorID, now, map[string]any{
		"campaign": map[string]any{
			"campaign_id":   campaignID,
			"name":          campaign.Name,
			"budget":        campaign.Budget,
			"probability":   campaign.Probability,
			"status":        string(campaign.Status),
			"advertiser_id": campaign.AdvertiserID,
		},
	})
	if err != nil {
		return CreateCampaignResult{}, err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return CreateCampaignResult{}, err
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", "sales-pipeline/campaign-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"campaign_id", campaignID,
	)
	return CreateCampaignResult{Campaign: campaign}, nil
}
