package paystack

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSecretKey = errors.New("paystack secret key is not configured")
	ErrInvalidRequest   = errors.New("invalid paystack request")
	ErrRequestFailed    = errors.New("paystack request failed")
	ErrCircuitOpen      = errors.New("paystack is unavailable, circuit open")
	ErrInvalidResponse  = errors.New("invalid paystack response")
	ErrInvalidPayload   = errors.New("invalid paystack event payload")
	ErrInvalidSignature = errors.New("invalid paystack signature")
)

// APIError is a non-2xx answer or a status:false envelope from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack api error (%d): %s", e.StatusCode, e.Message)
}

// Temporary reports whether the failure is on Paystack's side.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
