package queries

import (
	"context"

	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	"adops/contexts/sales-pipeline/campaign-workflow/ports"
	"adops/internal/shared/tenant"
)

type ListCampaignsQuery struct {
	Status       string
	AdvertiserID string
}

type ListCampaignsUseCase struct {
	Campaigns ports.CampaignRepository
}

func (uc ListCampaignsUseCase) Execute(ctx context.Context, tc tenant.Context, query ListCampaignsQuery) ([]entities.Campaign, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return uc.Campaigns.ListCampaigns(ctx, tc, ports.CampaignFilter{
		Status:       entities.CampaignStatus(query.Status),
		AdvertiserID: query.AdvertiserID,
	})
}
