package webhook

import "errors"

// Errors returned by signature helpers. Callers classify with errors.Is:
// configuration errors are fatal for the receiver, mismatches are integrity failures.
var (
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrMissingSignature     = errors.New("webhook signature is missing")
	ErrSignatureMismatch    = errors.New("webhook signature mismatch")
)
