package notify

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid notification configuration")
	ErrFailedToRender   = errors.New("failed to render notification")
	ErrFailedToNotify   = errors.New("failed to send notification")
	ErrMissingRecipient = errors.New("notification recipient has no email")
)
