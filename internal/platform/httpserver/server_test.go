package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	campaignworkflow "adops/contexts/sales-pipeline/campaign-workflow"
	orderworkflow "adops/contexts/sales-pipeline/order-workflow"
	triggerengine "adops/contexts/sales-pipeline/trigger-engine"
	triggermemory "adops/contexts/sales-pipeline/trigger-engine/adapters/memory"
	"adops/internal/platform/bus"
)

func newTestServer() *Server {
	orders := orderworkflow.NewInMemoryModule(nil)
	orderGateway := orderworkflow.Gateway{Module: orders}
	campaigns := campaignworkflow.NewInMemoryModule(orderGateway, orderGateway, nil, nil)
	triggers := triggerengine.NewInMemoryModule(
		campaignworkflow.Gateway{Module: campaigns},
		orderGateway,
		triggermemory.NewSinkRecorder(),
		nil,
		0,
		nil,
	)
	return New(campaigns, orders, triggers, bus.New(nil), nil, ":0")
}

func doJSON(t *testing.T, server *Server, method, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

var orgHeaders = map[string]string{
	"X-Org-Id":    "org-1",
	"X-User-Id":   "user-1",
	"X-User-Role": "admin",
}

func TestEndpointsRequireOrgHeader(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/v1/campaigns", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without org header, got %d", rr.Code)
	}
}

func TestCreateCampaignEndpoint(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/campaigns", map[string]any{
		"name":          "Spring Launch",
		"budget":        15000,
		"advertiser_id": "adv-1",
	}, orgHeaders)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var created struct {
		CampaignID  string `json:"campaign_id"`
		Status      string `json:"status"`
		Probability int    `json:"probability"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != "draft" || created.Probability != 10 {
		t.Fatalf("new campaign should be draft/10, got %s/%d", created.Status, created.Probability)
	}

	get := doJSON(t, server, http.MethodGet, "/v1/campaigns/"+created.CampaignID, nil, orgHeaders)
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", get.Code)
	}
}

func TestListCampaignsFiltersByAdvertiser(t *testing.T) {
	server := newTestServer()
	for _, advertiser := range []string{"adv-1", "adv-1", "adv-2"} {
		rr := doJSON(t, server, http.MethodPost, "/v1/campaigns", map[string]any{
			"name":          "campaign for " + advertiser,
			"budget":        5000,
			"advertiser_id": advertiser,
		}, orgHeaders)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create campaign: %d body=%s", rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, server, http.MethodGet, "/v1/campaigns?advertiser_id=adv-1", nil, orgHeaders)
	if rr.Code != http.StatusOK {
		t.Fatalf("list campaigns: %d body=%s", rr.Code, rr.Body.String())
	}
	var listed []struct {
		AdvertiserID string `json:"advertiser_id"`
		Status       string `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 campaigns for adv-1, got %d", len(listed))
	}
	for _, item := range listed {
		if item.AdvertiserID != "adv-1" {
			t.Fatalf("filter leaked advertiser %q", item.AdvertiserID)
		}
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/campaigns?status=draft&advertiser_id=adv-2", nil, orgHeaders)
	if rr.Code != http.StatusOK {
		t.Fatalf("list campaigns with status filter: %d body=%s", rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listed) != 1 || listed[0].Status != "draft" {
		t.Fatalf("expected one draft campaign for adv-2, got %+v", listed)
	}
}

func TestGetMissingOrderReturns404(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/v1/orders/ord-missing", nil, orgHeaders)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEventIntakeRejectsUnknownEvent(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/events", map[string]any{
		"event_type": "campaign_exploded",
		"entity_id":  "cmp-1",
	}, orgHeaders)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEventIntakeAcceptsEnvelope(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/events", map[string]any{
		"event_type":  "campaign_status_changed",
		"entity_type": "campaign",
		"entity_id":   "cmp-1",
		"data":        map[string]any{"campaign": map[string]any{"budget": 5000}},
	}, orgHeaders)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d body=%s", rr.Code, rr.Body.String())
	}
	var accepted struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if accepted.EventID == "" {
		t.Fatalf("intake should assign an event id")
	}
}

func TestSaveTriggerEndpointRejectsInvalidRule(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/triggers", map[string]any{
		"name":    "no actions",
		"event":   "campaign_status_changed",
		"enabled": true,
		"actions": []any{},
	}, orgHeaders)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestOrderTransitionEndpointMapsRoleError(t *testing.T) {
	server := newTestServer()
	created := doJSON(t, server, http.MethodPost, "/v1/orders", map[string]any{
		"campaign_id":  "cmp-1",
		"gross_amount": 10000,
		"commission":   1000,
	}, orgHeaders)
	if created.Code != http.StatusCreated {
		t.Fatalf("create order: %d body=%s", created.Code, created.Body.String())
	}
	var order struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	salesHeaders := map[string]string{
		"X-Org-Id":    "org-1",
		"X-User-Id":   "user-2",
		"X-User-Role": "sales",
	}
	// Sales may request approval but not grant it.
	rr := doJSON(t, server, http.MethodPost, "/v1/orders/"+order.OrderID+"/transition", map[string]any{
		"to_status": "pending_approval",
	}, salesHeaders)
	if rr.Code != http.StatusOK {
		t.Fatalf("pending_approval transition: %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, "/v1/orders/"+order.OrderID+"/transition", map[string]any{
		"to_status": "approved",
	}, salesHeaders)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}
