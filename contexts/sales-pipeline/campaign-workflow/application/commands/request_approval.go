package commands

import (
	"context"
	"log/slog"
	"strings"

	application "adops/contexts/sales-pipeline/campaign-workflow/application"
	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/campaign-workflow/domain/errors"
	"adops/contexts/sales-pipeline/campaign-workflow/ports"
	"adops/internal/shared/tenant"
)

type RequestApprovalCommand struct {
	Tenant        tenant.Context
	CampaignID    string
	RequiredRoles []string
	ActorID       string
}

type RequestApprovalResult struct {
	Approval entities.Approval
}

type RequestApprovalUseCase struct {
	Campaigns ports.CampaignRepository
	Approvals ports.ApprovalRepository
	Activity  ports.ActivityRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc RequestApprovalUseCase) Execute(ctx context.Context, cmd RequestApprovalCommand) (RequestApprovalResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := cmd.Tenant.Validate(); err != nil {
		return RequestApprovalResult{}, err
	}
	campaign, err := uc.Campaigns.GetCampaign(ctx, cmd.Tenant, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return RequestApprovalResult{}, err
	}
	switch campaign.Status {
	case entities.CampaignStatusPendingApproval:
		return RequestApprovalResult{}, domainerrors.ErrApprovalPending
	case entities.CampaignStatusApproved, entities.CampaignStatusActive, entities.CampaignStatusBooked:
		return RequestApprovalResult{}, domainerrors.ErrAlreadyApproved
	case entities.CampaignStatusLost:
		return RequestApprovalResult{}, domainerrors.ErrCampaignLost
	}
	if campaign.Probability != entities.RungVerbal && campaign.Probability != entities.RungSigned {
		return RequestApprovalResult{}, domainerrors.ErrApprovalNotEligible
	}

	now := uc.Clock.Now().UTC()
	approvalID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return RequestApprovalResult{}, err
	}
	approval := entities.Approval{
		ApprovalID:    approvalID,
		OrgID:         cmd.Tenant.OrgID,
		CampaignID:    campaign.CampaignID,
		RequiredRoles: append([]string(nil), cmd.RequiredRoles...),
		Status:        entities.ApprovalStatusPending,
		RequestedBy:   strings.TrimSpace(cmd.ActorID),
		CreatedAt:     now,
	}
	if err := uc.Approvals.CreateApproval(ctx, cmd.Tenant, approval); err != nil {
		return RequestApprovalResult{}, err
	}

	from := campaign.Status
	campaign.Status = entities.CampaignStatusPendingApproval
	campaign.ApprovalID = approvalID
	campaign.UpdatedAt = now
	if err := uc.Campaigns.UpdateCampaign(ctx, cmd.Tenant, campaign); err != nil {
		return RequestApprovalResult{}, err
	}

	activityID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return RequestApprovalResult{}, err
	}
	if err := uc.Activity.AppendActivity(ctx, cmd.Tenant, entities.ActivityLog{
		ActivityID:  activityID,
		OrgID:       cmd.Tenant.OrgID,
		CampaignID:  campaign.CampaignID,
		Kind:        "approval_requested",
		FromStatus:  from,
		ToStatus:    campaign.Status,
		Probability: campaign.Probability,
		ActorID:     strings.TrimSpace(cmd.ActorID),
		CreatedAt:   now,
	}); err != nil {
		return RequestApprovalResult{}, err
	}

	logger.Info("campaign approval requested",
		"event", "campaign_approval_requested",
		"module", "sales-pipeline/campaign-workflow",
		"layer", "application",
		"org_id", cmd.Tenant.OrgID,
		"campaign_id", campaign.CampaignID,
		"approval_id", approvalID,
	)
	return RequestApprovalResult{Approval: approval}, nil
}
