package http

import (
	"time"

	"adops/contexts/sales-pipeline/campaign-workflow/domain/entities"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateCampaignRequest struct {
	Name         string  `json:"name"`
	Budget       float64 `json:"budget"`
	AdvertiserID string  `json:"advertiser_id"`
	AgencyID     string  `json:"agency_id,omitempty"`
}

type UpdateProbabilityRequest struct {
	Operation string `json:"operation"`
	Value     int    `json:"value"`
	Note      string `json:"note,omitempty"`
}

type RequestApprovalRequest struct {
	RequiredRoles []string `json:"required_roles"`
}

type RejectApprovalRequest struct {
	Reason string `json:"reason"`
}

type CreateReservationRequest struct {
	ShowID        string `json:"show_id"`
	AirDate       string `json:"air_date"`
	PlacementType string `json:"placement_type"`
}

type CampaignResponse struct {
	CampaignID    string     `json:"campaign_id"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	Probability   int        `json:"probability"`
	Budget        float64    `json:"budget"`
	AdvertiserID  string     `json:"advertiser_id"`
	AgencyID      string     `json:"agency_id,omitempty"`
	ReservationID string     `json:"reservation_id,omitempty"`
	ApprovalID    string     `json:"approval_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func CampaignResponseFromEntity(item entities.Campaign) CampaignResponse {
	return CampaignResponse{
		CampaignID:    item.CampaignID,
		Name:          item.Name,
		Status:        string(item.Status),
		Probability:   item.Probability,
		Budget:        item.Budget,
		AdvertiserID:  item.AdvertiserID,
		AgencyID:      item.AgencyID,
		ReservationID: item.ReservationID,
		ApprovalID:    item.ApprovalID,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

type ApprovalResponse struct {
	ApprovalID string `json:"approval_id"`
	Status     string `json:"status"`
}

type ReservationResponse struct {
	ReservationID string `json:"reservation_id"`
}
