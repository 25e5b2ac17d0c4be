package campaignworkflow

import (
	"context"
	"log/slog"

	"adops/contexts/sales-pipeline/campaign-workflow/adapters/memory"
	"adops/contexts/sales-pipeline/campaign-workflow/application/commands"
	"adops/contexts/sales-pipeline/campaign-workflow/application/queries"
	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/campaign-workflow/domain/errors"
	"adops/contexts/sales-pipeline/campaign-workflow/ports"
	"adops/internal/shared/tenant"
)

type Module struct {
	CreateCampaign    commands.CreateCampaignUseCase
	UpdateProbability commands.UpdateProbabilityUseCase
	RequestApproval   commands.RequestApprovalUseCase
	ApproveCampaign   commands.ApproveCampaignUseCase
	RejectApproval    commands.RejectApprovalUseCase
	CreateReservation commands.CreateReservationUseCase
	MarkLost          commands.MarkLostUseCase
	GetCampaign       queries.GetCampaignUseCase
	ListCampaigns     queries.ListCampaignsUseCase

	Store *memory.Store
}

type Dependencies struct {
	Campaigns ports.CampaignRepository
	Approvals ports.ApprovalRepository
	Activity  ports.ActivityRepository
	Settings  ports.SettingsRepository
	Inventory ports.InventoryGateway
	Packages  ports.OrderPackageCreator
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		CreateCampaign: commands.CreateCampaignUseCase{
			Campaigns: deps.Campaigns,
			Activity:  deps.Activity,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		UpdateProbability: commands.UpdateProbabilityUseCase{
			Campaigns: deps.Campaigns,
			Activity:  deps.Activity,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		RequestApproval: commands.RequestApprovalUseCase{
			Campaigns: deps.Campaigns,
			Approvals: deps.Approvals,
			Activity:  deps.Activity,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		ApproveCampaign: commands.ApproveCampaignUseCase{
			Campaigns: deps.Campaigns,
			Approvals: deps.Approvals,
			Activity:  deps.Activity,
			Packages:  deps.Packages,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		RejectApproval: commands.RejectApprovalUseCase{
			Campaigns: deps.Campaigns,
			Approvals: deps.Approvals,
			Activity:  deps.Activity,
			Settings:  deps.Settings,
			Inventory: deps.Inventory,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		CreateReservation: commands.CreateReservationUseCase{
			Campaigns: deps.Campaigns,
			Activity:  deps.Activity,
			Inventory: deps.Inventory,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		MarkLost: commands.MarkLostUseCase{
			Campaigns: deps.Campaigns,
			Activity:  deps.Activity,
			Inventory: deps.Inventory,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
		GetCampaign:   queries.GetCampaignUseCase{Campaigns: deps.Campaigns},
		ListCampaigns: queries.ListCampaignsUseCase{Campaigns: deps.Campaigns},
	}
}

// NewInMemoryModule wires the module over the in-memory store. Inventory and
// order-package collaborators belong to the order workflow and are injected.
func NewInMemoryModule(
	inventory ports.InventoryGateway,
	packages ports.OrderPackageCreator,
	seed []entities.Campaign,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Campaigns: store,
		Approvals: store,
		Activity:  store,
		Settings:  store,
		Inventory: inventory,
		Packages:  packages,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}

// Gateway adapts the module's transition paths for the trigger engine. Rule
// actions mutate campaigns only through these validated commands.
type Gateway struct {
	Module Module
}

func (g Gateway) ChangeProbability(ctx context.Context, tc tenant.Context, campaignID, operation string, value int, actorID string) (int, error) {
	result, err := g.Module.UpdateProbability.Execute(ctx, commands.UpdateProbabilityCommand{
		Tenant:     tc,
		CampaignID: campaignID,
		Operation:  commands.ProbabilityOperation(operation),
		Value:      value,
		ActorID:    actorID,
	})
	if err != nil {
		return 0, err
	}
	return result.Probability, nil
}

func (g Gateway) CreateReservation(ctx context.Context, tc tenant.Context, campaignID, showID, airDate, placementType, actorID string) (string, error) {
	result, err := g.Module.CreateReservation.Execute(ctx, commands.CreateReservationCommand{
		Tenant:        tc,
		CampaignID:    campaignID,
		ShowID:        showID,
		AirDate:       airDate,
		PlacementType: placementType,
		ActorID:       actorID,
	})
	if err != nil {
		return "", err
	}
	return result.ReservationID, nil
}

func (g Gateway) RequestApproval(ctx context.Context, tc tenant.Context, campaignID string, requiredRoles []string, actorID string) (string, error) {
	result, err := g.Module.RequestApproval.Execute(ctx, commands.RequestApprovalCommand{
		Tenant:        tc,
		CampaignID:    campaignID,
		RequiredRoles: requiredRoles,
		ActorID:       actorID,
	})
	if err != nil {
		return "", err
	}
	return result.Approval.ApprovalID, nil
}

// TransitionStatus moves a campaign to a named pipeline rung. Side states
// outside the ladder are not reachable this way.
func (g Gateway) TransitionStatus(ctx context.Context, tc tenant.Context, campaignID, toStatus, actorID, note string) error {
	probability, ok := entities.ProbabilityForStatus(entities.CampaignStatus(toStatus))
	if !ok {
		return domainerrors.ErrInvalidRung
	}
	_, err := g.Module.UpdateProbability.Execute(ctx, commands.UpdateProbabilityCommand{
		Tenant:     tc,
		CampaignID: campaignID,
		Operation:  commands.ProbabilityOpSet,
		Value:      probability,
		ActorID:    actorID,
		Note:       note,
	})
	return err
}
