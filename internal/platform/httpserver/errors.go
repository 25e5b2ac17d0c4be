package httpserver

import (
	"errors"
	"net/http"

	campaignerrors "adops/contexts/sales-pipeline/campaign-workflow/domain/errors"
	ordererrors "adops/contexts/sales-pipeline/order-workflow/domain/errors"
	triggererrors "adops/contexts/sales-pipeline/trigger-engine/domain/errors"
	"adops/internal/shared/tenant"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func writeCampaignDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenant.ErrMissingOrg):
		writeError(w, http.StatusUnauthorized, "missing_org", err.Error())
	case errors.Is(err, campaignerrors.ErrCampaignNotFound),
		errors.Is(err, campaignerrors.ErrApprovalNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, campaignerrors.ErrInvalidCampaignInput),
		errors.Is(err, campaignerrors.ErrInvalidRung):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, campaignerrors.ErrProbabilityNotFull),
		errors.Is(err, campaignerrors.ErrApprovalNotEligible),
		errors.Is(err, campaignerrors.ErrApprovalNotPending),
		errors.Is(err, campaignerrors.ErrCampaignLost):
		writeError(w, http.StatusPreconditionFailed, "precondition_failed", err.Error())
	case errors.Is(err, campaignerrors.ErrAlreadyApproved),
		errors.Is(err, campaignerrors.ErrApprovalPending),
		errors.Is(err, campaignerrors.ErrReservationHeld):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, campaignerrors.ErrOrderPackageFailed):
		writeError(w, http.StatusBadGateway, "order_package_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeOrderDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenant.ErrMissingOrg):
		writeError(w, http.StatusUnauthorized, "missing_org", err.Error())
	case errors.Is(err, ordererrors.ErrOrderNotFound),
		errors.Is(err, ordererrors.ErrSlotNotFound),
		errors.Is(err, ordererrors.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ordererrors.ErrInvalidOrderInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ordererrors.ErrTransitionNotAllowed):
		writeError(w, http.StatusPreconditionFailed, "transition_not_allowed", err.Error())
	case errors.Is(err, ordererrors.ErrRoleNotPermitted):
		writeError(w, http.StatusForbidden, "role_not_permitted", err.Error())
	case errors.Is(err, ordererrors.ErrSlotExhausted),
		errors.Is(err, ordererrors.ErrReservationReleased):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ordererrors.ErrSlotInconsistent):
		writeError(w, http.StatusInternalServerError, "slot_inconsistent", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTriggerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenant.ErrMissingOrg):
		writeError(w, http.StatusUnauthorized, "missing_org", err.Error())
	case errors.Is(err, triggererrors.ErrTriggerNotFound):
		writeError(w, http.StatusNotFound, "trigger_not_found", err.Error())
	case errors.Is(err, triggererrors.ErrInvalidTriggerInput),
		errors.Is(err, triggererrors.ErrUnsupportedEvent):
		writeError(w, http.StatusUnprocessableEntity, "invalid_trigger", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
