package httpserver

import (
	"encoding/json"
	"net/http"

	"adops/contexts/sales-pipeline/trigger-engine/application/commands"
	"adops/contexts/sales-pipeline/trigger-engine/domain/entities"
	triggerhttp "adops/contexts/sales-pipeline/trigger-engine/transport/http"
)

func (s *Server) handleSaveTrigger(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	var req triggerhttp.SaveTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	result, err := s.triggers.SaveTrigger.Execute(r.Context(), commands.SaveTriggerCommand{
		Tenant: tc,
		Trigger: entities.Trigger{
			TriggerID: req.TriggerID,
			Name:      req.Name,
			Event:     req.Event,
			Condition: req.Condition,
			Actions:   req.Actions,
			Enabled:   req.Enabled,
			Priority:  req.Priority,
		},
	})
	if err != nil {
		writeTriggerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, triggerhttp.TriggerResponseFromEntity(result.Trigger))
}

func (s *Server) handleListTriggers(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	items, err := s.triggers.ListTriggers.Execute(r.Context(), tc)
	if err != nil {
		writeTriggerDomainError(w, err)
		return
	}
	resp := make([]triggerhttp.TriggerResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, triggerhttp.TriggerResponseFromEntity(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTrigger(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	trigger, err := s.triggers.GetTrigger.Execute(r.Context(), tc, r.PathValue("trigger_id"))
	if err != nil {
		writeTriggerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, triggerhttp.TriggerResponseFromEntity(trigger))
}

func (s *Server) handleDisableTrigger(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	if err := s.triggers.DisableTrigger.Execute(r.Context(), commands.DisableTriggerCommand{
		Tenant:    tc,
		TriggerID: r.PathValue("trigger_id"),
	}); err != nil {
		writeTriggerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": false})
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	items, err := s.triggers.ListExecutions.Execute(r.Context(), tc, r.PathValue("trigger_id"))
	if err != nil {
		writeTriggerDomainError(w, err)
		return
	}
	resp := make([]triggerhttp.ExecutionResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, triggerhttp.ExecutionResponseFromEntity(item))
	}
	writeJSON(w, http.StatusOK, resp)
}
