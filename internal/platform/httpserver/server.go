package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	campaignworkflow "adops/contexts/sales-pipeline/campaign-workflow"
	orderworkflow "adops/contexts/sales-pipeline/order-workflow"
	triggerengine "adops/contexts/sales-pipeline/trigger-engine"
	"adops/internal/shared/events"
	"adops/internal/shared/tenant"

	"github.com/google/uuid"
)

// Publisher is the event intake's downstream, usually the in-process bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	campaigns campaignworkflow.Module
	orders    orderworkflow.Module
	triggers  triggerengine.Module
	publisher Publisher
}

func New(
	campaigns campaignworkflow.Module,
	orders orderworkflow.Module,
	triggers triggerengine.Module,
	publisher Publisher,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		campaigns: campaigns,
		orders:    orders,
		triggers:  triggers,
		publisher: publisher,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /v1/events", s.handleEventIntake)

	s.mux.HandleFunc("POST /v1/campaigns", s.handleCreateCampaign)
	s.mux.HandleFunc("GET /v1/campaigns", s.handleListCampaigns)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/probability", s.handleUpdateProbability)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/approval-request", s.handleRequestApproval)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/approve", s.handleApproveCampaign)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/reject", s.handleRejectApproval)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/reservation", s.handleCreateReservation)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/lose", s.handleMarkLost)

	s.mux.HandleFunc("POST /v1/orders", s.handleCreateOrder)
	s.mux.HandleFunc("GET /v1/orders", s.handleListOrders)
	s.mux.HandleFunc("GET /v1/orders/{order_id}", s.handleGetOrder)
	s.mux.HandleFunc("POST /v1/orders/{order_id}/transition", s.handleTransitionOrder)
	s.mux.HandleFunc("POST /v1/orders/bulk-transition", s.handleBulkTransition)
	s.mux.HandleFunc("GET /v1/inventory/slots", s.handleGetSlot)

	s.mux.HandleFunc("POST /v1/triggers", s.handleSaveTrigger)
	s.mux.HandleFunc("GET /v1/triggers", s.handleListTriggers)
	s.mux.HandleFunc("GET /v1/triggers/{trigger_id}", s.handleGetTrigger)
	s.mux.HandleFunc("POST /v1/triggers/{trigger_id}/disable", s.handleDisableTrigger)
	s.mux.HandleFunc("GET /v1/triggers/{trigger_id}/executions", s.handleListExecutions)
}

// handleEventIntake accepts an external event envelope, validates it, and
// hands it to the bus. Rule evaluation happens downstream in the worker; the
// caller is never blocked on it.
func (s *Server) handleEventIntake(w http.ResponseWriter, r *http.Request) {
	tc, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}

	var envelope events.Envelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if !events.IsSupportedEvent(envelope.EventType) {
		writeError(w, http.StatusBadRequest, "unsupported_event", "unknown event type "+envelope.EventType)
		return
	}
	if strings.TrimSpace(envelope.EntityID) == "" {
		writeError(w, http.StatusBadRequest, "missing_entity", "entity_id is required")
		return
	}
	envelope.OrgID = tc.OrgID
	if envelope.EventID == "" {
		envelope.EventID = uuid.NewString()
	}
	if envelope.OccurredAt.IsZero() {
		envelope.OccurredAt = time.Now().UTC()
	}

	if err := s.publisher.Publish(r.Context(), events.TopicWorkflow, envelope); err != nil {
		writeError(w, http.StatusInternalServerError, "publish_failed", "event could not be enqueued")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"event_id": envelope.EventID})
}

// resolveTenant reads the org header every endpoint requires.
func (s *Server) resolveTenant(w http.ResponseWriter, r *http.Request) (tenant.Context, bool) {
	tc := tenant.New(r.Header.Get("X-Org-Id"))
	if err := tc.Validate(); err != nil {
		writeError(w, http.StatusUnauthorized, "missing_org", "X-Org-Id header is required")
		return tenant.Context{}, false
	}
	return tc, true
}

func actorID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func actorRole(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Role"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
