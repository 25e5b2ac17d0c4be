package http

import (
	"time"

	"adops/contexts/sales-pipeline/order-workflow/domain/entities"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateOrderRequest struct {
	CampaignID  string  `json:"campaign_id,omitempty"`
	GrossAmount float64 `json:"gross_amount"`
	Commission  float64 `json:"commission"`
}

type TransitionRequest struct {
	ToStatus string `json:"to_status"`
	Note     string `json:"note,omitempty"`
}

type BulkTransitionRequest struct {
	OrderIDs []string `json:"order_ids"`
	ToStatus string   `json:"to_status"`
	Note     string   `json:"note,omitempty"`
}

type TransitionResponse struct {
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

type OrderResponse struct {
	OrderID       string    `json:"order_id"`
	CampaignID    string    `json:"campaign_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	Status        string    `json:"status"`
	GrossAmount   float64   `json:"gross_amount"`
	NetAmount     float64   `json:"net_amount"`
	Commission    float64   `json:"commission"`
	TotalAmount   float64   `json:"total_amount"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func OrderResponseFromEntity(item entities.Order) OrderResponse {
	return OrderResponse{
		OrderID:       item.OrderID,
		CampaignID:    item.CampaignID,
		ReservationID: item.ReservationID,
		Status:        string(item.Status),
		GrossAmount:   item.GrossAmount,
		NetAmount:     item.NetAmount,
		Commission:    item.Commission,
		TotalAmount:   item.TotalAmount,
		CreatedBy:     item.CreatedBy,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

type SlotResponse struct {
	ShowID        string `json:"show_id"`
	AirDate       string `json:"air_date"`
	PlacementType string `json:"placement_type"`
	Total         int    `json:"total"`
	Available     int    `json:"available"`
	Reserved      int    `json:"reserved"`
	Booked        int    `json:"booked"`
}

func SlotResponseFromEntity(item entities.SlotCounter) SlotResponse {
	return SlotResponse{
		ShowID:        item.ShowID,
		AirDate:       item.AirDate,
		PlacementType: item.PlacementType,
		Total:         item.Total,
		Available:     item.Available,
		Reserved:      item.Reserved,
		Booked:        item.Booked,
	}
}
