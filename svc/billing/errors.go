package billing

import "errors"

var (
	ErrInvalidMetadata     = errors.New("charge metadata is missing or invalid")
	ErrInvalidCheckout     = errors.New("invalid checkout request")
	ErrFailedToApplyEvent  = errors.New("failed to apply webhook event")
	ErrCheckoutFailed      = errors.New("failed to start checkout")
	ErrGatewayUnavailable  = errors.New("payment gateway is unavailable")
	ErrMissingAccountEmail = errors.New("account has no email address")
)
