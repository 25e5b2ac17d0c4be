package errors

import "errors"

var (
	ErrTriggerNotFound     = errors.New("trigger not found")
	ErrInvalidTriggerInput = errors.New("invalid trigger input")
	ErrUnsupportedEvent    = errors.New("unsupported event name")
	ErrExecutionExists     = errors.New("execution already recorded")
	ErrWebhookDelivery     = errors.New("webhook delivery failed")
	ErrRecipientResolution = errors.New("recipient resolution failed")
)
