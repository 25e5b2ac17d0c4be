package errors

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidOrderInput    = errors.New("invalid order input")
	ErrTransitionNotAllowed = errors.New("order status transition not allowed")
	ErrRoleNotPermitted     = errors.New("actor role not permitted for transition")
	ErrSlotNotFound         = errors.New("inventory slot not found")
	ErrSlotExhausted        = errors.New("no available inventory in slot")
	ErrSlotInconsistent     = errors.New("inventory slot counters are inconsistent")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrReservationReleased  = errors.New("reservation already released")
)
