package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "adops/contexts/sales-pipeline/campaign-workflow/application"
	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/campaign-workflow/domain/errors"
	"adops/contexts/sales-pipeline/campaign-workflow/ports"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"
)

type ApproveCampaignCommand struct {
	Tenant     tenant.Context
	CampaignID string
	ActorID    string
	Note       string
}

type ApproveCampaignResult struct {
	Campaign entities.Campaign
	Package  ports.OrderPackage
}

// ApproveCampaignUseCase finalizes a signed campaign. Order, Contract and
// initial Invoice are created through one atomic port call; if that call
// fails the approval aborts and the campaign keeps its previous status.
type ApproveCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Approvals ports.ApprovalRepository
	Activity  ports.ActivityRepository
	Packages  ports.OrderPackageCreator
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc ApproveCampaignUseCase) Execute(ctx context.Context, cmd ApproveCampaignCommand) (ApproveCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return ApproveCampaignResult{}, err
	}
	campaign, err := uc.Campaigns.GetCampaign(ctx, cmd.Tenant, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return ApproveCampaignResult{}, err
	}
	switch campaign.Status {
	case entities.CampaignStatusApproved, entities.CampaignStatusActive, entities.CampaignStatusBooked:
		return ApproveCampaignResult{}, domainerrors.ErrAlreadyApproved
	case entities.CampaignStatusLost:
		return ApproveCampaignResult{}, domainerrors.ErrCampaignLost
	}
	if campaign.Probability != entities.RungSigned {
		return ApproveCampaignResult{}, domainerrors.ErrProbabilityNotFull
	}

	now := uc.Clock.Now().UTC()
	pkg, err := uc.Packages.CreateOrderPackage(ctx, cmd.Tenant, campaign, strings.TrimSpace(cmd.ActorID))
	if err != nil {
		logger.Error("campaign approval aborted, order package failed",
			"event", "campaign_approval_aborted",
			"module", "sales-pipeline/campaign-workflow",
			"layer", "application",
			"org_id", cmd.Tenant.OrgID,
			"campaign_id", campaign.CampaignID,
			"error", err.Error(),
		)
		return ApproveCampaignResult{}, fmt.Errorf("%w: %v", domainerrors.ErrOrderPackageFailed, err)
	}

	if campaign.ApprovalID != "" {
		approval, err := uc.Approvals.GetApproval(ctx, cmd.Tenant, campaign.ApprovalID)
		if err == nil && approval.Status == entities.ApprovalStatusPending {
			approval.Status = entities.ApprovalStatusApproved
			approval.ResolvedBy = strings.TrimSpace(cmd.ActorID)
			approval.ResolvedAt = &now
			if err := uc.Approvals.UpdateApproval(ctx, cmd.Tenant, approval); err != nil {
				return ApproveCampaignResult{}, err
			}
		}
	}

	from := campaign.Status
	campaign.Status = entities.CampaignStatusApproved
	campaign.UpdatedAt = now
	if err := uc.Campaigns.UpdateCampaign(ctx, cmd.Tenant, campaign); err != nil {
		return ApproveCampaignResult{}, err
	}

	activityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ApproveCampaignResult{}, err
	}
	if err := uc.Activity.AppendActivity(ctx, cmd.Tenant, entities.ActivityLog{
		ActivityID:  activityID,
		OrgID:       cmd.Tenant.OrgID,
		CampaignID:  campaign.CampaignID,
		Kind:        "campaign_approved",
		FromStatus:  from,
		ToStatus:    campaign.Status,
		Probability: campaign.Probability,
		ActorID:     strings.TrimSpace(cmd.ActorID),
		Note:        strings.TrimSpace(cmd.Note),
		CreatedAt:   now,
	}); err != nil {
		return ApproveCampaignResult{}, err
	}

	data := map[string]any{
		"campaign": map[string]any{
			"campaign_id": campaign.CampaignID,
			"budget":      campaign.Budget,
			"probability": campaign.Probability,
			"status":      string(campaign.Status),
		},
		"order_id":    pkg.OrderID,
		"contract_id": pkg.ContractID,
		"invoice_id":  pkg.InvoiceID,
	}
	for _, eventType := range []string{events.EventContractGenerated, events.EventInvoiceGenerated, events.EventCampaignStatusChanged} {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return ApproveCampaignResult{}, err
		}
		envelope, err := newCampaignEnvelope(eventID, eventType, cmd.Tenant, campaign.CampaignID, cmd.ActorID, now, data)
		if err != nil {
			return ApproveCampaignResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return ApproveCampaignResult{}, err
		}
	}

	logger.Info("campaign approved",
		"event", "campaign_approved",
		"module", "sales-pipeline/campaign-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"campaign_id", campaign.CampaignID,
		"order_id", pkg.OrderID,
		"contract_id", pkg.ContractID,
		"invoice_id", pkg.InvoiceID,
	)
	return ApproveCampaignResult{Campaign: campaign, Package: pkg}, nil
}
