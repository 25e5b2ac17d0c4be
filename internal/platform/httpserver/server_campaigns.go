package httpserver

import (
	"encoding/json"
	"net/http"

	"adops/contexts/sales-pipeline/campaign-workflow/application/commands"
	campaignqueries "adops/contexts/sales-pipeline/campaign-workflow/application/queries"
	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
	campaignhttp "adops/contexts/sales-pipeline/campaign-workflow/transport/http"
)

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req campaignhttp.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	result, err := s.campaigns.CreateCampaign.Execute(r.Context(), commands.CreateCampaignCommand{
		Tenant:       tc,
		Name:         req.Name,
		Budget:       req.Budget,
		AdvertiserID: req.AdvertiserID,
		AgencyID:     req.AgencyID,
		ActorID:      actorID(r),
	})
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaignhttp.CampaignResponseFromEntity(result.Campaign))
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	items, err := s.campaigns.ListCampaigns.Execute(r.Context(), tc, campaignqueries.ListCampaignsQuery{
		Status:       query.Get("status"),
		AdvertiserID: query.Get("advertiser_id"),
	})
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	resp := make([]campaignhttp.CampaignResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, campaignhttp.CampaignResponseFromEntity(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	campaign, err := s.campaigns.GetCampaign.Execute(r.Context(), tc, r.PathValue("campaign_id"))
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaignhttp.CampaignResponseFromEntity(campaign))
}

func (s *Server) handleUpdateProbability(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req campaignhttp.UpdateProbabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	result, err := s.campaigns.UpdateProbability.Execute(r.Context(), commands.UpdateProbabilityCommand{
		Tenant:     tc,
		CampaignID: r.PathValue("campaign_id"),
		Operation:  commands.ProbabilityOperation(req.Operation),
		Value:      req.Value,
		ActorID:    actorID(r),
		Note:       req.Note,
	})
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"previous_status": string(result.PreviousStatus),
		"new_status":      string(result.NewStatus),
		"probability":     result.Probability,
	})
}

func (s *Server) handleRequestApproval(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req campaignhttp.RequestApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	result, err := s.campaigns.RequestApproval.Execute(r.Context(), commands.RequestApprovalCommand{
		Tenant:        tc,
		CampaignID:    r.PathValue("campaign_id"),
		RequiredRoles: req.RequiredRoles,
		ActorID:       actorID(r),
	})
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaignhttp.ApprovalResponse{
		ApprovalID: result.Approval.ApprovalID,
		Status:     string(result.Approval.Status),
	})
}

func (s *Server) handleApproveCampaign(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	result, err := s.campaigns.ApproveCampaign.Execute(r.Context(), commands.ApproveCampaignCommand{
		Tenant:     tc,
		CampaignID: r.PathValue("campaign_id"),
		ActorID:    actorID(r),
	})
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign":    campaignhttp.CampaignResponseFromEntity(result.Campaign),
		"order_id":    result.Package.OrderID,
		"contract_id": result.Package.ContractID,
		"invoice_id":  result.Package.InvoiceID,
	})
}

func (s *Server) handleRejectApproval(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req campaignhttp.RejectApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	result, err := s.campaigns.RejectApproval.Execute(r.Context(), commands.RejectApprovalCommand{
		Tenant:     tc,
		CampaignID: r.PathValue("campaign_id"),
		ActorID:    actorID(r),
		Reason:     req.Reason,
	})
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"previous_status": string(result.PreviousStatus),
		"new_status":      string(result.NewStatus),
		"probability":     result.Probability,
	})
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req campaignhttp.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	result, err := s.campaigns.CreateReservation.Execute(r.Context(), commands.CreateReservationCommand{
		Tenant:        tc,
		CampaignID:    r.PathValue("campaign_id"),
		ShowID:        req.ShowID,
		AirDate:       req.AirDate,
		PlacementType: req.PlacementType,
		ActorID:       actorID(r),
	})
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaignhttp.ReservationResponse{ReservationID: result.ReservationID})
}

func (s *Server) handleMarkLost(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.campaigns.MarkLost.Execute(r.Context(), commands.MarkLostCommand{
		Tenant:     tc,
		CampaignID: r.PathValue("campaign_id"),
		ActorID:    actorID(r),
		Reason:     req.Reason,
	}); err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(entities.CampaignStatusLost)})
}
