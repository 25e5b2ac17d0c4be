package errors

import "errors"

var (
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrApprovalNotFound     = errors.New("approval request not found")
	ErrInvalidCampaignInput = errors.New("invalid campaign input")
	ErrInvalidRung          = errors.New("probability must be one of the pipeline rungs")
	ErrCampaignLost         = errors.New("campaign is lost and cannot change state")
	ErrProbabilityNotFull   = errors.New("campaign probability must be 100 to approve")
	ErrApprovalNotEligible  = errors.New("campaign probability must be 90 or 100 to request approval")
	ErrAlreadyApproved      = errors.New("campaign is already approved")
	ErrApprovalPending      = errors.New("campaign already has a pending approval")
	ErrApprovalNotPending   = errors.New("campaign has no pending approval")
	ErrReservationHeld      = errors.New("campaign already holds a reservation")
	ErrOrderPackageFailed   = errors.New("order package creation failed")
)
