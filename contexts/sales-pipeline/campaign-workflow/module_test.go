package campaignworkflow_test

import (
	"context"
	"errors"
	"testing"

	campaignworkflow "adops/contexts/sales-pipeline/campaign-workflow"
	"adops/contexts/sales-pipeline/campaign-workflow/application/commands"
	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	domainerrors "adops/contexts/sales-pipeline/campaign-workflow/domain/errors"
	orderworkflow "adops/contexts/sales-pipeline/order-workflow"
	orderentities "adops/contexts/sales-pipeline/order-workflow/domain/entities"
	orderports "adops/contexts/sales-pipeline/order-workflow/ports"
	"adops/internal/shared/tenant"
)

var testTenant = tenant.New("org-1")

// newModules wires the campaign module over the order module's gateway, the
// same shape the composition root uses.
func newModules(t *testing.T) (campaignworkflow.Module, orderworkflow.Module) {
	t.Helper()
	orders := orderworkflow.NewInMemoryModule(nil)
	gateway := orderworkflow.Gateway{Module: orders}
	campaigns := campaignworkflow.NewInMemoryModule(gateway, gateway, nil, nil)
	return campaigns, orders
}

func seedSlot(t *testing.T, orders orderworkflow.Module, key orderports.SlotKey, total int) {
	t.Helper()
	if err := orders.Store.PutSlot(context.Background(), testTenant, orderentities.SlotCounter{
		OrgID:         testTenant.OrgID,
		ShowID:        key.ShowID,
		AirDate:       key.AirDate,
		PlacementType: key.PlacementType,
		Total:         total,
		Available:     total,
	}); err != nil {
		t.Fatalf("put slot: %v", err)
	}
}

func createCampaign(t *testing.T, campaigns campaignworkflow.Module) entities.Campaign {
	t.Helper()
	result, err := campaigns.CreateCampaign.Execute(context.Background(), commands.CreateCampaignCommand{
		Tenant:       testTenant,
		Name:         "Fall Launch",
		Budget:       25000,
		AdvertiserID: "adv-1",
		ActorID:      "user-1",
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return result.Campaign
}

func setProbability(t *testing.T, campaigns campaignworkflow.Module, campaignID string, rung int) {
	t.Helper()
	if _, err := campaigns.UpdateProbability.Execute(context.Background(), commands.UpdateProbabilityCommand{
		Tenant:     testTenant,
		CampaignID: campaignID,
		Operation:  commands.ProbabilityOpSet,
		Value:      rung,
		ActorID:    "user-1",
	}); err != nil {
		t.Fatalf("set probability %d: %v", rung, err)
	}
}

func TestCreateCampaignStartsAtDraft(t *testing.T) {
	campaigns, _ := newModules(t)
	campaign := createCampaign(t, campaigns)

	if campaign.Status != entities.CampaignStatusDraft || campaign.Probability != entities.RungDraft {
		t.Fatalf("new campaign should be draft/10, got %s/%d", campaign.Status, campaign.Probability)
	}
	activity := campaigns.Store.ActivityForCampaign(campaign.CampaignID)
	if len(activity) != 1 {
		t.Fatalf("expected one activity row, got %d", len(activity))
	}
}

func TestUpdateProbabilityRejectsOffRungSet(t *testing.T) {
	campaigns, _ := newModules(t)
	campaign := createCampaign(t, campaigns)

	_, err := campaigns.UpdateProbability.Execute(context.Background(), commands.UpdateProbabilityCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		Operation:  commands.ProbabilityOpSet,
		Value:      50,
		ActorID:    "user-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidRung) {
		t.Fatalf("expected ErrInvalidRung, got %v", err)
	}
}

func TestUpdateProbabilityAddClampsToSigned(t *testing.T) {
	campaigns, _ := newModules(t)
	campaign := createCampaign(t, campaigns)
	setProbability(t, campaigns, campaign.CampaignID, entities.RungVerbal)

	result, err := campaigns.UpdateProbability.Execute(context.Background(), commands.UpdateProbabilityCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		Operation:  commands.ProbabilityOpAdd,
		Value:      30,
		ActorID:    "user-1",
	})
	if err != nil {
		t.Fatalf("add 30: %v", err)
	}
	if result.Probability != entities.RungSigned || result.NewStatus != entities.CampaignStatusSigned {
		t.Fatalf("90+30 should clamp to signed/100, got %s/%d", result.NewStatus, result.Probability)
	}
}

func TestRequestApprovalRequiresVerbalOrSigned(t *testing.T) {
	campaigns, _ := newModules(t)
	campaign := createCampaign(t, campaigns)
	setProbability(t, campaigns, campaign.CampaignID, entities.RungProposal)

	_, err := campaigns.RequestApproval.Execute(context.Background(), commands.RequestApprovalCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		ActorID:    "user-1",
	})
	if !errors.Is(err, domainerrors.ErrApprovalNotEligible) {
		t.Fatalf("expected ErrApprovalNotEligible, got %v", err)
	}
}

func TestRejectApprovalFallsBackAndReleasesReservation(t *testing.T) {
	campaigns, orders := newModules(t)
	ctx := context.Background()
	campaign := createCampaign(t, campaigns)
	setProbability(t, campaigns, campaign.CampaignID, entities.RungVerbal)

	key := orderports.SlotKey{ShowID: "show-1", AirDate: "2026-09-20", PlacementType: "midroll"}
	seedSlot(t, orders, key, 1)
	if _, err := campaigns.CreateReservation.Execute(ctx, commands.CreateReservationCommand{
		Tenant:        testTenant,
		CampaignID:    campaign.CampaignID,
		ShowID:        key.ShowID,
		AirDate:       key.AirDate,
		PlacementType: key.PlacementType,
		ActorID:       "user-1",
	}); err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	if _, err := campaigns.RequestApproval.Execute(ctx, commands.RequestApprovalCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		ActorID:    "user-1",
	}); err != nil {
		t.Fatalf("request approval: %v", err)
	}

	result, err := campaigns.RejectApproval.Execute(ctx, commands.RejectApprovalCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		ActorID:    "user-2",
		Reason:     "budget not confirmed",
	})
	if err != nil {
		t.Fatalf("reject approval: %v", err)
	}
	if result.NewStatus != entities.CampaignStatusProposal || result.Probability != entities.RungProposal {
		t.Fatalf("rejection should fall back to proposal/65, got %s/%d", result.NewStatus, result.Probability)
	}

	fetched, err := campaigns.GetCampaign.Execute(ctx, testTenant, campaign.CampaignID)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if fetched.ReservationID != "" || fetched.ApprovalID != "" {
		t.Fatalf("rejection should clear reservation and approval, got %+v", fetched)
	}

	slot, err := orders.GetSlot.Execute(ctx, testTenant, key)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.Available != 1 || slot.Reserved != 0 {
		t.Fatalf("rejection should release the held slot, got %+v", slot)
	}
}

func TestRejectApprovalHonorsTenantFallback(t *testing.T) {
	campaigns, _ := newModules(t)
	ctx := context.Background()
	campaigns.Store.PutPipelineSettings(entities.PipelineSettings{
		OrgID:                testTenant.OrgID,
		ApprovalFallbackRung: entities.RungQualified,
	})

	campaign := createCampaign(t, campaigns)
	setProbability(t, campaigns, campaign.CampaignID, entities.RungVerbal)
	if _, err := campaigns.RequestApproval.Execute(ctx, commands.RequestApprovalCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		ActorID:    "user-1",
	}); err != nil {
		t.Fatalf("request approval: %v", err)
	}

	result, err := campaigns.RejectApproval.Execute(ctx, commands.RejectApprovalCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		ActorID:    "user-2",
	})
	if err != nil {
		t.Fatalf("reject approval: %v", err)
	}
	if result.Probability != entities.RungQualified {
		t.Fatalf("configured fallback rung should win, got %d", result.Probability)
	}
}

func TestApproveRequiresFullProbability(t *testing.T) {
	campaigns, _ := newModules(t)
	campaign := createCampaign(t, campaigns)
	setProbability(t, campaigns, campaign.CampaignID, entities.RungVerbal)

	_, err := campaigns.ApproveCampaign.Execute(context.Background(), commands.ApproveCampaignCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		ActorID:    "user-1",
	})
	if !errors.Is(err, domainerrors.ErrProbabilityNotFull) {
		t.Fatalf("expected ErrProbabilityNotFull, got %v", err)
	}
}

func TestApproveCreatesOrderPackage(t *testing.T) {
	campaigns, orders := newModules(t)
	ctx := context.Background()
	campaign := createCampaign(t, campaigns)
	setProbability(t, campaigns, campaign.CampaignID, entities.RungSigned)

	result, err := campaigns.ApproveCampaign.Execute(ctx, commands.ApproveCampaignCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		ActorID:    "user-1",
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Campaign.Status != entities.CampaignStatusApproved {
		t.Fatalf("campaign should be approved, got %s", result.Campaign.Status)
	}
	if result.Package.OrderID == "" || result.Package.ContractID == "" || result.Package.InvoiceID == "" {
		t.Fatalf("package ids missing: %+v", result.Package)
	}

	order, err := orders.GetOrder.Execute(ctx, testTenant, result.Package.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != orderentities.OrderStatusApproved {
		t.Fatalf("package order should start approved, got %s", order.Status)
	}
	if order.GrossAmount != campaign.Budget {
		t.Fatalf("order amount should mirror the budget, got %f", order.GrossAmount)
	}

	contract, invoice, ok := orders.Store.PackageForOrder(testTenant, result.Package.OrderID)
	if !ok {
		t.Fatalf("contract and invoice should be persisted with the order")
	}
	if contract.ContractID != result.Package.ContractID || invoice.InvoiceID != result.Package.InvoiceID {
		t.Fatalf("package ids should match persisted rows: %+v vs contract %s invoice %s",
			result.Package, contract.ContractID, invoice.InvoiceID)
	}
	if invoice.Amount != campaign.Budget {
		t.Fatalf("invoice amount should mirror the budget, got %f", invoice.Amount)
	}

	// The campaign is now frozen for pipeline moves.
	_, err = campaigns.UpdateProbability.Execute(ctx, commands.UpdateProbabilityCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		Operation:  commands.ProbabilityOpSet,
		Value:      entities.RungDraft,
		ActorID:    "user-1",
	})
	if !errors.Is(err, domainerrors.ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}
}

func TestMarkLostIsTerminal(t *testing.T) {
	campaigns, _ := newModules(t)
	ctx := context.Background()
	campaign := createCampaign(t, campaigns)

	if err := campaigns.MarkLost.Execute(ctx, commands.MarkLostCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		ActorID:    "user-1",
		Reason:     "lost to competitor",
	}); err != nil {
		t.Fatalf("mark lost: %v", err)
	}

	fetched, err := campaigns.GetCampaign.Execute(ctx, testTenant, campaign.CampaignID)
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if fetched.Status != entities.CampaignStatusLost {
		t.Fatalf("expected lost, got %s", fetched.Status)
	}

	_, err = campaigns.UpdateProbability.Execute(ctx, commands.UpdateProbabilityCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		Operation:  commands.ProbabilityOpSet,
		Value:      entities.RungQualified,
		ActorID:    "user-1",
	})
	if !errors.Is(err, domainerrors.ErrCampaignLost) {
		t.Fatalf("expected ErrCampaignLost, got %v", err)
	}
}

func TestPendingApprovalFreezesProbability(t *testing.T) {
	campaigns, _ := newModules(t)
	ctx := context.Background()
	campaign := createCampaign(t, campaigns)
	setProbability(t, campaigns, campaign.CampaignID, entities.RungVerbal)

	if _, err := campaigns.RequestApproval.Execute(ctx, commands.RequestApprovalCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		ActorID:    "user-1",
	}); err != nil {
		t.Fatalf("request approval: %v", err)
	}

	_, err := campaigns.UpdateProbability.Execute(ctx, commands.UpdateProbabilityCommand{
		Tenant:     testTenant,
		CampaignID: campaign.CampaignID,
		Operation:  commands.ProbabilityOpAdd,
		Value:      10,
		ActorID:    "user-1",
	})
	if !errors.Is(err, domainerrors.ErrApprovalPending) {
		t.Fatalf("expected ErrApprovalPending, got %v", err)
	}
}
