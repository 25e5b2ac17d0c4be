package entities

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"adops/contexts/sales-pipeline/trigger-engine/domain/conditions"
)

type ActionKind string

const (
	ActionSendNotification  ActionKind = "send_notification"
	ActionCreateReservation ActionKind = "create_reservation"
	ActionRequireApproval   ActionKind = "require_approval"
	ActionChangeProbability ActionKind = "change_probability"
	ActionTransitionStatus  ActionKind = "transition_status"
	ActionEmitWebhook       ActionKind = "emit_webhook"
)

type NotificationConfig struct {
	RecipientIDs []string `json:"recipient_ids,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
}

type ReservationConfig struct {
	ShowID        string `json:"show_id"`
	AirDate       string `json:"air_date"`
	PlacementType string `json:"placement_type"`
}

type ApprovalConfig struct {
	RequiredRoles []string `json:"required_roles"`
	Reason        string   `json:"reason,omitempty"`
}

type ProbabilityConfig struct {
	Operation string `json:"operation"`
	Value     int    `json:"value"`
}

type TransitionConfig struct {
	ToStatus  string `json:"to_status"`
	ActorRole string `json:"actor_role"`
	Note      string `json:"note,omitempty"`
}

type WebhookConfig struct {
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

// ActionConfig is a closed union: Kind selects exactly one of the typed
// config pointers. Validate enforces the pairing at configuration-write time.
type ActionConfig struct {
	Kind         ActionKind          `json:"kind"`
	Notification *NotificationConfig `json:"notification,omitempty"`
	Reservation  *ReservationConfig  `json:"reservation,omitempty"`
	Approval     *ApprovalConfig     `json:"approval,omitempty"`
	Probability  *ProbabilityConfig  `json:"probability,omitempty"`
	Transition   *TransitionConfig   `json:"transition,omitempty"`
	Webhook      *WebhookConfig      `json:"webhook,omitempty"`
}

func (a ActionConfig) Validate(path string) error {
	switch a.Kind {
	case ActionSendNotification:
		if a.Notification == nil {
			return fmt.Errorf("%s.notification: required for kind %s", path, a.Kind)
		}
		if len(a.Notification.RecipientIDs) == 0 && len(a.Notification.Roles) == 0 {
			return fmt.Errorf("%s.notification: needs recipient_ids or roles", path)
		}
	case ActionCreateReservation:
		if a.Reservation == nil {
			return fmt.Errorf("%s.reservation: required for kind %s", path, a.Kind)
		}
		if a.Reservation.ShowID == "" || a.Reservation.AirDate == "" || a.Reservation.PlacementType == "" {
			return fmt.Errorf("%s.reservation: show_id, air_date and placement_type are required", path)
		}
	case ActionRequireApproval:
		if a.Approval == nil {
			return fmt.Errorf("%s.approval: required for kind %s", path, a.Kind)
		}
		if len(a.Approval.RequiredRoles) == 0 {
			return fmt.Errorf("%s.approval.required_roles: must not be empty", path)
		}
	case ActionChangeProbability:
		if a.Probability == nil {
			return fmt.Errorf("%s.probability: required for kind %s", path, a.Kind)
		}
		switch a.Probability.Operation {
		case "set", "add", "subtract":
		default:
			return fmt.Errorf("%s.probability.operation: unknown operation %q", path, a.Probability.Operation)
		}
	case ActionTransitionStatus:
		if a.Transition == nil {
			return fmt.Errorf("%s.transition: required for kind %s", path, a.Kind)
		}
		if a.Transition.ToStatus == "" {
			return fmt.Errorf("%s.transition.to_status: must not be empty", path)
		}
	case ActionEmitWebhook:
		if a.Webhook == nil {
			return fmt.Errorf("%s.webhook: required for kind %s", path, a.Kind)
		}
		parsed, err := url.Parse(a.Webhook.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s.webhook.url: invalid url %q", path, a.Webhook.URL)
		}
		if a.Webhook.Secret == "" {
			return fmt.Errorf("%s.webhook.secret: must not be empty", path)
		}
	default:
		return fmt.Errorf("%s.kind: unknown action kind %q", path, a.Kind)
	}
	return nil
}

// Trigger is one per-tenant rule. Disabled rather than deleted so execution
// rows keep a valid reference.
type Trigger struct {
	TriggerID      string
	OrgID          string
	Name           string
	Event          string
	Condition      *conditions.Node
	Actions        []ActionConfig
	Enabled        bool
	Priority       int
	ExecutionCount int
	LastExecutedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t Trigger) ValidateBasics() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name: must not be empty")
	}
	if strings.TrimSpace(t.Event) == "" {
		return fmt.Errorf("event: must not be empty")
	}
	if len(t.Actions) == 0 {
		return fmt.Errorf("actions: must not be empty")
	}
	if t.Condition != nil {
		if err := conditions.Validate(*t.Condition); err != nil {
			return err
		}
	}
	for i, action := range t.Actions {
		if err := action.Validate(fmt.Sprintf("actions[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionSkipped ExecutionStatus = "skipped"
)

// Execution rows are append-only and unique on (org, trigger, entity, event);
// that key is the engine's only duplicate defense under at-least-once delivery.
type Execution struct {
	ExecutionID string
	OrgID       string
	TriggerID   string
	EntityType  string
	EntityID    string
	Event       string
	Status      ExecutionStatus
	Message     string
	CreatedAt   time.Time
}
