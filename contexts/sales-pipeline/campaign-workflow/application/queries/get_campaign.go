package queries

import (
	"context"
	"strings"

	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	"adops/contexts/sales-pipeline/campaign-workflow/ports"
	"adops/internal/shared/tenant"
)

type GetCampaignUseCase struct {
	Campaigns ports.CampaignRepository
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, tc tenant.Context, campaignID string) (entities.Campaign, error) {
	if err := tc.Validate(); err != nil {
		return entities.Campaign{}, err
	}
	return uc.Campaigns.GetCampaign(ctx, tc, strings.TrimSpace(campaignID))
}
