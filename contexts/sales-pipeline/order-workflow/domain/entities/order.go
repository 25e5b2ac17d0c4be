package entities

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusDraft           OrderStatus = "draft"
	OrderStatusPendingApproval OrderStatus = "pending_approval"
	OrderStatusApproved        OrderStatus = "approved"
	OrderStatusBooked          OrderStatus = "booked"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

const (
	RoleAdmin = "admin"
	RoleSales = "sales"
)

// legalTransitions is the authoritative transition table. Terminal states map
// to an empty set.
var legalTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:           {OrderStatusPendingApproval, OrderStatusCancelled},
	OrderStatusPendingApproval: {OrderStatusApproved, OrderStatusDraft, OrderStatusCancelled},
	OrderStatusApproved:        {OrderStatusBooked, OrderStatusCancelled},
	OrderStatusBooked:          {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:       {},
	OrderStatusCancelled:       {},
}

// requiredRoles maps target status to the roles allowed to move an order there.
var requiredRoles = map[OrderStatus][]string{
	OrderStatusPendingApproval: {RoleAdmin, RoleSales},
	OrderStatusApproved:        {RoleAdmin},
	OrderStatusDraft:           {RoleAdmin},
	OrderStatusBooked:          {RoleAdmin, RoleSales},
	OrderStatusConfirmed:       {RoleAdmin},
	OrderStatusCancelled:       {RoleAdmin, RoleSales},
}

type Order struct {
	OrderID       string
	OrgID         string
	CampaignID    string
	ReservationID string
	Status        OrderStatus
	GrossAmount   float64
	NetAmount     float64
	Commission    float64
	TotalAmount   float64
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusHistory rows are append-only, one per transition, never mutated.
type StatusHistory struct {
	HistoryID  string
	OrgID      string
	OrderID    string
	FromStatus OrderStatus
	ToStatus   OrderStatus
	ActorID    string
	ActorRole  string
	Note       string
	CreatedAt  time.Time
}

type Contract struct {
	ContractID string
	OrgID      string
	CampaignID string
	OrderID    string
	CreatedAt  time.Time
}

type Invoice struct {
	InvoiceID string
	OrgID     string
	OrderID   string
	Amount    float64
	CreatedAt time.Time
}

func IsSupportedStatus(value OrderStatus) bool {
	_, ok := legalTransitions[value]
	return ok
}

func IsTerminal(status OrderStatus) bool {
	return len(legalTransitions[status]) == 0 && IsSupportedStatus(status)
}

func CanTransition(from, to OrderStatus) bool {
	for _, target := range legalTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the legal next statuses for error messages.
func AllowedTargets(from OrderStatus) []OrderStatus {
	return append([]OrderStatus(nil), legalTransitions[from]...)
}

func RolePermitted(to OrderStatus, role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, allowed := range requiredRoles[to] {
		if allowed == role {
			return true
		}
	}
	return false
}
