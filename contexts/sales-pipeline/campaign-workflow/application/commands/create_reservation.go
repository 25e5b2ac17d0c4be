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

type CreateReservationCommand struct {
	Tenant        tenant.Context
	CampaignID    string
	ShowID        string
	AirDate       string
	PlacementType string
	ActorID       string
}

type CreateReservationResult struct {
	ReservationID string
}

type CreateReservationUseCase struct {
	Campaigns ports.CampaignRepository
	Activity  ports.ActivityRepository
	Inventory ports.InventoryGateway
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc CreateReservationUseCase) Execute(ctx context.Context, cmd CreateReservationCommand) (CreateReservationResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return CreateReservationResult{}, err
	}
	campaign, err := uc.Campaigns.GetCampaign(ctx, cmd.Tenant, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return CreateReservationResult{}, err
	}
	if campaign.IsTerminal() {
		return CreateReservationResult{}, domainerrors.ErrCampaignLost
	}
	if campaign.ReservationID != "" {
		return CreateReservationResult{}, domainerrors.ErrReservationHeld
	}

	key := ports.SlotKey{
		ShowID:        strings.TrimSpace(cmd.ShowID),
		AirDate:       strings.TrimSpace(cmd.AirDate),
		PlacementType: strings.TrimSpace(cmd.PlacementType),
	}
	if key.ShowID == "" || key.AirDate == "" || key.PlacementType == "" {
		return CreateReservationResult{}, domainerrors.ErrInvalidCampaignInput
	}

	reservationID, err := uc.Inventory.ReserveSlot(ctx, cmd.Tenant, campaign.CampaignID, key)
	if err != nil {
		return CreateReservationResult{}, err
	}

	now := uc.Clock.Now().UTC()
	campaign.ReservationID = reservationID
	campaign.UpdatedAt = now
	if err := uc.Campaigns.UpdateCampaign(ctx, cmd.Tenant, campaign); err != nil {
		return CreateReservationResult{}, err
	}

	activityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateReservationResult{}, err
	}
	if err := uc.Activity.AppendActivity(ctx, cmd.Tenant, entities.ActivityLog{
		ActivityID:  activityID,
		OrgID:       cmd.Tenant.OrgID,
		CampaignID:  campaign.CampaignID,
		Kind:        "inventory_reserved",
		FromStatus:  campaign.Status,
		ToStatus:    campaign.Status,
		Probability: campaign.Probability,
		ActorID:     strings.TrimSpace(cmd.ActorID),
		Note:        reservationID,
		CreatedAt:   now,
	}); err != nil {
		return CreateReservationResult{}, err
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateReservationResult{}, err
	}
	envelope, err := newCampaignEnvelope(eventID, events.EventInventoryReserved, cmd.Tenant, campaign.CampaignID, cmd.ActorID, now, map[string]any{
		"campaign": map[string]any{
			"campaign_id": campaign.CampaignID,
			"budget":      campaign.Budget,
			"probability": campaign.Probability,
			"status":      string(campaign.Status),
		},
		"reservation_id": reservationID,
		"show_id":        key.ShowID,
		"air_date":       key.AirDate,
		"placement_type": key.PlacementType,
	})
	if err != nil {
		return CreateReservationResult{}, err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
		return CreateReservationResult{}, err
	}

	logger.Info("campaign reservation created",
		"event", "campaign_reservation_created",
		"module", "sales-pipeline/campaign-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"campaign_id", campaign.CampaignID,
		"reservation_id", reservationID,
	)
	return CreateReservationResult{ReservationID: reservationID}, nil
}
