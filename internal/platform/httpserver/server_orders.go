package httpserver

import (
	"encoding/json"
	"net/http"

	"adops/contexts/sales-pipeline/order-workflow/application/commands"
	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
	orderports "adops/contexts/sales-pipeline/order-workflow/ports"
	orderhttp "adops/contexts/sales-pipeline/order-workflow/transport/http"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req orderhttp.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	result, err := s.orders.CreateOrder.Execute(r.Context(), commands.CreateOrderCommand{
		Tenant:      tc,
		CampaignID:  req.CampaignID,
		GrossAmount: req.GrossAmount,
		Commission:  req.Commission,
		ActorID:     actorID(r),
	})
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderhttp.OrderResponseFromEntity(result.Order))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	items, err := s.orders.ListOrders.Execute(r.Context(), tc, orderports.OrderFilter{
		CampaignID: query.Get("campaign_id"),
		Status:     entities.OrderStatus(query.Get("status")),
	})
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	resp := make([]orderhttp.OrderResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, orderhttp.OrderResponseFromEntity(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	order, err := s.orders.GetOrder.Execute(r.Context(), tc, r.PathValue("order_id"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderhttp.OrderResponseFromEntity(order))
}

func (s *Server) handleTransitionOrder(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req orderhttp.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	result, err := s.orders.TransitionOrder.Execute(r.Context(), commands.TransitionOrderCommand{
		Tenant:    tc,
		OrderID:   r.PathValue("order_id"),
		ToStatus:  entities.OrderStatus(req.ToStatus),
		ActorID:   actorID(r),
		ActorRole: actorRole(r),
		Note:      req.Note,
	})
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderhttp.TransitionResponse{
		PreviousStatus: string(result.PreviousStatus),
		NewStatus:      string(result.NewStatus),
	})
}

func (s *Server) handleBulkTransition(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req orderhttp.BulkTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	result, err := s.orders.BulkTransition.Execute(r.Context(), commands.BulkTransitionCommand{
		Tenant:    tc,
		OrderIDs:  req.OrderIDs,
		ToStatus:  entities.OrderStatus(req.ToStatus),
		ActorID:   actorID(r),
		ActorRole: actorRole(r),
		Note:      req.Note,
	})
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	resp := make([]orderhttp.TransitionResponse, 0, len(result.Transitioned))
	for _, item := range result.Transitioned {
		resp = append(resp, orderhttp.TransitionResponse{
			PreviousStatus: string(item.PreviousStatus),
			NewStatus:      string(item.NewStatus),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	slot, err := s.orders.GetSlot.Execute(r.Context(), tc, orderports.SlotKey{
		ShowID:        query.Get("show_id"),
		AirDate:       query.Get("air_date"),
		PlacementType: query.Get("placement_type"),
	})
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderhttp.SlotResponseFromEntity(slot))
}
